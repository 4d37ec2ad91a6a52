package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

var ErrUnknownRole = errors.New("unknown participant role")

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// participantTable maps a role to the table holding its identities. The
// result is interpolated into SQL, so only the fixed names below are returned.
func participantTable(role models.ParticipantRole) (string, error) {
	switch role {
	case models.RoleUser:
		return "users", nil
	case models.RoleProvider:
		return "providers", nil
	default:
		return "", ErrUnknownRole
	}
}

func roomColumn(role models.ParticipantRole) (string, error) {
	switch role {
	case models.RoleUser:
		return "user_id", nil
	case models.RoleProvider:
		return "provider_id", nil
	default:
		return "", ErrUnknownRole
	}
}
