package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/merchantdesk/internal/app"
	"github.com/neomorfeo/merchantdesk/internal/domain"
)

type sessionKey struct{}

// Authenticate resolves the bearer token of each request and stores the
// session in the request context. Requests without a valid token pass
// through unauthenticated; operations decide whether that is allowed.
func Authenticate(auth *app.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if ok && token != "" {
				if sess, err := auth.Resolve(r.Context(), token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionFrom(ctx context.Context) (app.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(app.Session)
	return sess, ok
}

// require is the role gate of every protected operation. With no roles any
// authenticated user passes.
func require(ctx context.Context, roles ...domain.Role) (app.Session, error) {
	sess, ok := sessionFrom(ctx)
	if !ok {
		return app.Session{}, unauthenticated()
	}
	if len(roles) > 0 && !domain.Allowed(&sess.User, roles...) {
		return app.Session{}, toHumaError(&domain.AccessError{Role: sess.User.Role, Allowed: roles})
	}
	return sess, nil
}

// UserResponse is the API representation of the signed-in user.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role" enum:"AGENT,APPROVER,MONITOR"`
}

// RouteResponse is one navigation entry.
type RouteResponse struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

// SessionResponse describes a login session.
type SessionResponse struct {
	Token  string          `json:"token,omitempty" doc:"Bearer token for later requests"`
	User   UserResponse    `json:"user"`
	Routes []RouteResponse `json:"routes"`
}

func toSessionResponse(sess app.Session, withToken bool) SessionResponse {
	resp := SessionResponse{
		User: UserResponse{
			ID:    sess.User.ID,
			Name:  sess.User.Name,
			Email: sess.User.Email,
			Role:  string(sess.User.Role),
		},
		Routes: toRoutes(&sess.User),
	}
	if withToken {
		resp.Token = sess.Token
	}
	return resp
}

func toRoutes(u *domain.User) []RouteResponse {
	routes := domain.RoutesFor(u)
	out := make([]RouteResponse, len(routes))
	for i, r := range routes {
		out[i] = RouteResponse{Path: r.Path, Title: r.Title}
	}
	return out
}

type RoleInput struct {
	Body struct {
		Role string `json:"role" enum:"AGENT,APPROVER,MONITOR" doc:"Role to act as"`
	}
}

type SessionOutput struct {
	Body SessionResponse
}

type NavigationOutput struct {
	Body []RouteResponse
}

func registerSession(api huma.API, auth *app.AuthService) {
	huma.Register(api, huma.Operation{
		OperationID:   "login",
		Method:        http.MethodPost,
		Path:          "/api/v1/session",
		Summary:       "Sign in as a role",
		Tags:          []string{"Session"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *RoleInput) (*SessionOutput, error) {
		sess, err := auth.Login(ctx, domain.Role(input.Body.Role))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SessionOutput{Body: toSessionResponse(sess, true)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/api/v1/session",
		Summary:     "Current session",
		Tags:        []string{"Session"},
	}, func(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
		sess, err := require(ctx)
		if err != nil {
			return nil, err
		}
		return &SessionOutput{Body: toSessionResponse(sess, false)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "switch-role",
		Method:      http.MethodPut,
		Path:        "/api/v1/session/role",
		Summary:     "Switch the role of the current session",
		Description: "Replaces the signed-in user and discards any open wizard.",
		Tags:        []string{"Session"},
	}, func(ctx context.Context, input *RoleInput) (*SessionOutput, error) {
		sess, err := require(ctx)
		if err != nil {
			return nil, err
		}
		next, err := auth.SwitchRole(ctx, sess.Token, domain.Role(input.Body.Role))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SessionOutput{Body: toSessionResponse(next, false)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "logout",
		Method:        http.MethodDelete,
		Path:          "/api/v1/session",
		Summary:       "Sign out",
		Tags:          []string{"Session"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		sess, err := require(ctx)
		if err != nil {
			return nil, err
		}
		if err := auth.Logout(ctx, sess.Token); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "navigation",
		Method:      http.MethodGet,
		Path:        "/api/v1/navigation",
		Summary:     "Routes visible to the caller",
		Tags:        []string{"Session"},
	}, func(ctx context.Context, _ *struct{}) (*NavigationOutput, error) {
		sess, err := require(ctx)
		if err != nil {
			return nil, err
		}
		return &NavigationOutput{Body: toRoutes(&sess.User)}, nil
	})
}
