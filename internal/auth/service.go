package auth

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/indigoair/indigo/config"
	"github.com/indigoair/indigo/internal/domain"
	"github.com/indigoair/indigo/internal/identity"
)

// UserDirectory is the part of the Roblox client login needs.
type UserDirectory interface {
	UserInfo(ctx context.Context, oauthToken string) (*identity.UserInfo, error)
	GroupRank(ctx context.Context, userID string) (int, error)
}

type Session struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      domain.Principal `json:"user"`
}

type Service struct {
	users  UserDirectory
	issuer *Issuer
	ranks  []config.RoleRank
	logger *slog.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService expects ranks sorted by MinRank descending, as config
// loading leaves them.
func NewService(users UserDirectory, issuer *Issuer, ranks []config.RoleRank, opts ...ServiceOption) *Service {
	s := &Service{
		users:  users,
		issuer: issuer,
		ranks:  ranks,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login exchanges a Roblox OAuth token for a session. The role comes from
// the user's group rank; when the groups API cannot be reached the user
// signs in as a passenger.
func (s *Service) Login(ctx context.Context, oauthToken string) (*Session, error) {
	info, err := s.users.UserInfo(ctx, oauthToken)
	if err != nil {
		return nil, err
	}

	role := domain.RolePassenger
	rank, err := s.users.GroupRank(ctx, info.Sub)
	if err != nil {
		s.logger.Warn("group rank lookup failed", "user_id", info.Sub, "error", err)
	} else {
		role = RoleForRank(s.ranks, rank)
	}

	principal := domain.Principal{ID: info.Sub, Name: info.DisplayName(), Role: role}
	token, expiresAt, err := s.issuer.Issue(principal)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", "user_id", principal.ID, "role", principal.Role)
	return &Session{Token: token, ExpiresAt: expiresAt, User: principal}, nil
}

// RoleForRank picks the first role whose threshold rank reaches.
func RoleForRank(ranks []config.RoleRank, rank int) domain.Role {
	if rank <= 0 {
		return domain.RolePassenger
	}
	for _, r := range ranks {
		if rank >= r.MinRank {
			return domain.Role(r.Role)
		}
	}
	return domain.RolePassenger
}
