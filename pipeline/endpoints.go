package pipeline

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/telco-console/internal/config"
)

// AuthEndpoints are the paths the pipeline never touches: no Authorization
// header is added and a 401 from them is returned as is.
type AuthEndpoints struct {
	Login    string
	Refresh  string
	Logout   string
	Register string
}

func DefaultAuthEndpoints() AuthEndpoints {
	return AuthEndpoints{
		Login:    "/api/auth/login",
		Refresh:  "/api/auth/refresh",
		Logout:   "/api/auth/logout",
		Register: "/api/auth/register",
	}
}

func AuthEndpointsFromConfig(cfg config.AuthConfig) AuthEndpoints {
	return AuthEndpoints{
		Login:    cfg.GetLoginPath(),
		Refresh:  cfg.GetRefreshPath(),
		Logout:   cfg.GetLogoutPath(),
		Register: cfg.GetRegisterPath(),
	}
}

// Match reports whether u targets one of the endpoints. A backend mounted
// under a path prefix still matches.
func (e AuthEndpoints) Match(u *url.URL) bool {
	if u == nil {
		return false
	}
	path := strings.TrimRight(u.Path, "/")
	for _, p := range []string{e.Login, e.Refresh, e.Logout, e.Register} {
		p = strings.TrimRight(p, "/")
		if p != "" && strings.HasSuffix(path, p) {
			return true
		}
	}
	return false
}
