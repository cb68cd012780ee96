package httpadapter

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

const (
	callerIDHeader   = "X-Caller-Id"
	accountIDHeader  = "X-Account-Id"
	privilegedHeader = "X-Super-User"
)

// callerFromRequest builds the caller identity from transport metadata. The
// privilege header counts only when the deployment puts a trusted gateway in
// front of the API. Utterance text never contributes.
func callerFromRequest(r *http.Request, trustPrivilege bool) domain.Caller {
	id := strings.TrimSpace(r.Header.Get(callerIDHeader))
	if id == "" {
		id = r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			id = host
		}
	}

	privileged := false
	if trustPrivilege {
		privileged, _ = strconv.ParseBool(strings.TrimSpace(r.Header.Get(privilegedHeader)))
	}

	return domain.Caller{
		ID:         id,
		Privileged: privileged,
		AccountID:  strings.TrimSpace(r.Header.Get(accountIDHeader)),
	}
}
