package session

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avlasov/securevault/internal/dbx"
	"github.com/avlasov/securevault/internal/logging"
	"github.com/avlasov/securevault/internal/models"
)

// Storage keys. One row each; Clear wipes them all at once.
const (
	keyToken    = "token"
	keyUserID   = "user_id"
	keyUsername = "username"
)

// Controller owns the session lifecycle: created at login, destroyed at
// logout, forced expiry (401) or account deletion. It is the single "who is
// logged in" accessor for the rest of the client.
type Controller struct {
	db  *sql.DB
	log logging.Logger
}

func NewController(db *sql.DB, log logging.Logger) *Controller {
	return &Controller{db: db, log: log}
}

func (c *Controller) repo(db dbx.DBTX) Repository {
	return NewSQLiteRepository(db)
}

// Set persists the session in a single transaction.
func (c *Controller) Set(ctx context.Context, user models.User, token string) error {
	return dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := c.repo(tx)
		if err := repo.Set(ctx, keyToken, []byte(token)); err != nil {
			return err
		}
		if err := repo.Set(ctx, keyUserID, []byte(strconv.FormatInt(user.ID, 10))); err != nil {
			return err
		}
		return repo.Set(ctx, keyUsername, []byte(user.Username))
	})
}

// Token returns the stored auth token, or the empty string when logged out.
func (c *Controller) Token(ctx context.Context) (string, error) {
	v, err := c.repo(c.db).Get(ctx, keyToken)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// CurrentUser returns the stored user record, or nil when logged out.
func (c *Controller) CurrentUser(ctx context.Context) (*models.User, error) {
	repo := c.repo(c.db)

	name, err := repo.Get(ctx, keyUsername)
	if err != nil {
		return nil, err
	}
	if len(name) == 0 {
		return nil, nil
	}

	rawID, err := repo.Get(ctx, keyUserID)
	if err != nil {
		return nil, err
	}
	id, _ := strconv.ParseInt(string(rawID), 10, 64)

	return &models.User{ID: id, Username: string(name)}, nil
}

// Clear destroys the persisted session.
func (c *Controller) Clear(ctx context.Context) error {
	return c.repo(c.db).Clear(ctx)
}

// TokenProvider adapts the controller for the API client's token hook.
// Lookup failures degrade to "no token"; the server will answer 401 and the
// normal expiry path takes over.
func (c *Controller) TokenProvider() func(ctx context.Context) string {
	return func(ctx context.Context) string {
		token, err := c.Token(ctx)
		if err != nil {
			c.log.Warn(ctx, "session token lookup failed", "error", err)
			return ""
		}
		return token
	}
}

// Expired reports whether the stored token is a JWT whose exp claim has
// passed. The token is treated as opaque: non-JWT tokens and tokens without
// an exp claim are never considered expired locally, the server remains the
// authority.
func (c *Controller) Expired(ctx context.Context) bool {
	token, err := c.Token(ctx)
	if err != nil || token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
