package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts. Queries over
// the catalog return rows in catalog (insertion) order; no implied sort.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// ProductsByCategory retrieves up to 'limit' products in the given category.
	ProductsByCategory(ctx context.Context, category string, limit int) ([]Product, error)

	// ProductsByTitleKeywords retrieves up to 'limit' products whose title
	// contains any of the tokens, case-insensitively.
	ProductsByTitleKeywords(ctx context.Context, tokens []string, limit int) ([]Product, error)

	// ProductsByMaxPrice retrieves up to 'limit' products priced at or below max.
	ProductsByMaxPrice(ctx context.Context, maxPrice float64, limit int) ([]Product, error)

	// FirstProducts retrieves the first 'limit' products in catalog order.
	FirstProducts(ctx context.Context, limit int) ([]Product, error)

	// ProductByID retrieves a product by ID. Returns nil, nil if not found.
	ProductByID(ctx context.Context, id int64) (*Product, error)

	// InsertProduct inserts a catalog entry. Used by the seeder only.
	InsertProduct(ctx context.Context, p *Product) error

	// CountProducts returns the number of catalog entries.
	CountProducts(ctx context.Context) (int, error)

	// CartLines retrieves the user's cart joined with product title and price.
	CartLines(ctx context.Context, userID int64) ([]CartLine, error)

	// UpsertCartLine creates a cart line with quantity deltaQty, or atomically
	// increments the existing line for the same (user, product) pair.
	UpsertCartLine(ctx context.Context, userID, productID int64, deltaQty int) error

	// CartCount returns the number of distinct cart lines for the user.
	CartCount(ctx context.Context, userID int64) (int, error)

	// EnsureConversation returns the conversation ID for the given user and
	// token, creating the conversation if it does not exist yet.
	EnsureConversation(ctx context.Context, userID int64, token string) (int64, error)

	// ConversationIDByToken resolves a conversation token for the given user
	// without creating anything. Returns 0, nil if no conversation exists.
	ConversationIDByToken(ctx context.Context, userID int64, token string) (int64, error)

	// AppendMessage appends a message to a conversation.
	AppendMessage(ctx context.Context, conversationID int64, sender, text string) error

	// MessagesByConversation retrieves all messages of a conversation in
	// timestamp-ascending order.
	MessagesByConversation(ctx context.Context, conversationID int64) ([]Message, error)

	// ClearMessages removes all messages of a conversation. The conversation
	// itself is kept.
	ClearMessages(ctx context.Context, conversationID int64) error

	// CreateUser inserts a new user account.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)

	// UserByUsername retrieves a user by username. Returns nil, nil if not found.
	UserByUsername(ctx context.Context, username string) (*User, error)

	// UserByEmail retrieves a user by email. Returns nil, nil if not found.
	UserByEmail(ctx context.Context, email string) (*User, error)

	// CreateAuthSession stores a login session token.
	CreateAuthSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error

	// AuthSessionUser resolves a session token to its user. Returns nil, nil
	// if the token is unknown or expired.
	AuthSessionUser(ctx context.Context, token string) (*User, error)

	// DeleteAuthSession removes a login session (logout).
	DeleteAuthSession(ctx context.Context, token string) error

	// DeleteExpiredAuthSessions removes all expired login sessions and
	// returns the number deleted.
	DeleteExpiredAuthSessions(ctx context.Context) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const productColumns = `id, title, description, price, category, rating, image_url, stock, created_at`

func (s *sqlxStore) ProductsByCategory(ctx context.Context, category string, limit int) ([]Product, error) {
	if category == "" {
		return nil, fmt.Errorf("category cannot be empty")
	}

	var products []Product
	query := `SELECT ` + productColumns + ` FROM products WHERE category = ? ORDER BY id LIMIT ?;`
	if err := s.db.SelectContext(ctx, &products, query, category, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error querying products by category", "category", category, "error", err)
		return nil, fmt.Errorf("failed to get products in category %q: %w", category, err)
	}

	s.logger.DebugContext(ctx, "Fetched products by category", "category", category, "count", len(products))
	return products, nil
}

func (s *sqlxStore) ProductsByTitleKeywords(ctx context.Context, tokens []string, limit int) ([]Product, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("tokens cannot be empty")
	}

	// Any token hit qualifies: per-token LIKE conditions combined with OR.
	conditions := make([]string, 0, len(tokens))
	args := make([]any, 0, len(tokens)+1)
	for _, token := range tokens {
		conditions = append(conditions, "title LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(token)+"%")
	}
	args = append(args, limit)

	query := `SELECT ` + productColumns + ` FROM products WHERE ` +
		strings.Join(conditions, " OR ") + ` ORDER BY id LIMIT ?;`

	var products []Product
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		s.logger.ErrorContext(ctx, "Error querying products by keywords", "tokens", tokens, "error", err)
		return nil, fmt.Errorf("failed to search products by keywords: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched products by keywords", "tokens", tokens, "count", len(products))
	return products, nil
}

// escapeLike escapes LIKE wildcards in a user-supplied token. SQLite LIKE is
// case-insensitive for ASCII by default, which matches the search contract.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func (s *sqlxStore) ProductsByMaxPrice(ctx context.Context, maxPrice float64, limit int) ([]Product, error) {
	var products []Product
	query := `SELECT ` + productColumns + ` FROM products WHERE price <= ? ORDER BY id LIMIT ?;`
	if err := s.db.SelectContext(ctx, &products, query, maxPrice, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error querying products by max price", "max_price", maxPrice, "error", err)
		return nil, fmt.Errorf("failed to get products under %.2f: %w", maxPrice, err)
	}
	return products, nil
}

func (s *sqlxStore) FirstProducts(ctx context.Context, limit int) ([]Product, error) {
	var products []Product
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id LIMIT ?;`
	if err := s.db.SelectContext(ctx, &products, query, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error querying first products", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get first %d products: %w", limit, err)
	}
	return products, nil
}

func (s *sqlxStore) ProductByID(ctx context.Context, id int64) (*Product, error) {
	var product Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?;`
	err := s.db.GetContext(ctx, &product, query, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No product found", "product_id", id)
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting product by ID", "product_id", id, "error", err)
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &product, nil
}

func (s *sqlxStore) InsertProduct(ctx context.Context, p *Product) error {
	if p == nil {
		return fmt.Errorf("cannot insert nil product")
	}
	if p.Title == "" {
		return fmt.Errorf("product must have a title")
	}
	if p.Price < 0 {
		return fmt.Errorf("product price must be non-negative")
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO products (title, description, price, category, rating, image_url, stock, created_at)
        VALUES (:title, :description, :price, :category, :rating, :image_url, :stock, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, p)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error inserting product", "title", p.Title, "error", err)
		return fmt.Errorf("failed to insert product %q: %w", p.Title, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		p.ID = id
	}
	return nil
}

func (s *sqlxStore) CountProducts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products;`); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func (s *sqlxStore) CartLines(ctx context.Context, userID int64) ([]CartLine, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}

	var lines []CartLine
	query := `
        SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.added_at, p.title, p.price
        FROM cart_items ci
        JOIN products p ON p.id = ci.product_id
        WHERE ci.user_id = ?
        ORDER BY ci.id;
    `
	if err := s.db.SelectContext(ctx, &lines, query, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error getting cart lines", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get cart lines for user %d: %w", userID, err)
	}
	return lines, nil
}

// UpsertCartLine creates or increments a cart line in a single statement so
// concurrent adds for the same (user, product) key cannot lose increments.
func (s *sqlxStore) UpsertCartLine(ctx context.Context, userID, productID int64, deltaQty int) error {
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}
	if productID == 0 {
		return fmt.Errorf("product_id cannot be zero")
	}
	if deltaQty < 1 {
		return fmt.Errorf("quantity delta must be at least 1, got %d", deltaQty)
	}

	query := `
        INSERT INTO cart_items (user_id, product_id, quantity, added_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (user_id, product_id)
        DO UPDATE SET quantity = quantity + excluded.quantity;
    `
	if _, err := s.db.ExecContext(ctx, query, userID, productID, deltaQty, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting cart line",
			"user_id", userID, "product_id", productID, "error", err)
		return fmt.Errorf("failed to upsert cart line (user %d, product %d): %w", userID, productID, err)
	}

	s.logger.DebugContext(ctx, "Cart line upserted", "user_id", userID, "product_id", productID, "delta", deltaQty)
	return nil
}

func (s *sqlxStore) CartCount(ctx context.Context, userID int64) (int, error) {
	if userID == 0 {
		return 0, fmt.Errorf("user_id cannot be zero")
	}

	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM cart_items WHERE user_id = ?;`, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error counting cart lines", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to count cart lines for user %d: %w", userID, err)
	}
	return count, nil
}

func (s *sqlxStore) EnsureConversation(ctx context.Context, userID int64, token string) (int64, error) {
	if userID == 0 {
		return 0, fmt.Errorf("user_id cannot be zero")
	}
	if token == "" {
		return 0, fmt.Errorf("conversation token cannot be empty")
	}

	var id int64
	err := s.db.GetContext(ctx, &id, `SELECT id FROM chat_sessions WHERE session_token = ? AND user_id = ?;`, token, userID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.logger.ErrorContext(ctx, "Error looking up conversation", "token", token, "error", err)
		return 0, fmt.Errorf("failed to look up conversation: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (user_id, session_token, created_at) VALUES (?, ?, ?);`,
		userID, token, time.Now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating conversation", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to create conversation for user %d: %w", userID, err)
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get new conversation ID: %w", err)
	}

	s.logger.InfoContext(ctx, "Conversation created", "user_id", userID, "conversation_id", id)
	return id, nil
}

func (s *sqlxStore) ConversationIDByToken(ctx context.Context, userID int64, token string) (int64, error) {
	if userID == 0 || token == "" {
		return 0, nil
	}

	var id int64
	err := s.db.GetContext(ctx, &id, `SELECT id FROM chat_sessions WHERE session_token = ? AND user_id = ?;`, token, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error resolving conversation token", "error", err)
		return 0, fmt.Errorf("failed to resolve conversation token: %w", err)
	}
	return id, nil
}

func (s *sqlxStore) AppendMessage(ctx context.Context, conversationID int64, sender, text string) error {
	if conversationID == 0 {
		return fmt.Errorf("conversation_id cannot be zero")
	}
	if sender != SenderUser && sender != SenderBot {
		return fmt.Errorf("invalid sender %q", sender)
	}
	if text == "" {
		return fmt.Errorf("message text cannot be empty")
	}

	query := `INSERT INTO chat_messages (session_id, message, sender, timestamp) VALUES (?, ?, ?, ?);`
	if _, err := s.db.ExecContext(ctx, query, conversationID, text, sender, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error appending message",
			"conversation_id", conversationID, "sender", sender, "error", err)
		return fmt.Errorf("failed to append %s message to conversation %d: %w", sender, conversationID, err)
	}
	return nil
}

func (s *sqlxStore) MessagesByConversation(ctx context.Context, conversationID int64) ([]Message, error) {
	if conversationID == 0 {
		return nil, fmt.Errorf("conversation_id cannot be zero")
	}

	var messages []Message
	// Secondary sort on id keeps request/response pairs ordered when both
	// rows share a timestamp.
	query := `
        SELECT id, session_id, message, sender, timestamp
        FROM chat_messages
        WHERE session_id = ?
        ORDER BY timestamp ASC, id ASC;
    `
	if err := s.db.SelectContext(ctx, &messages, query, conversationID); err != nil {
		s.logger.ErrorContext(ctx, "Error getting conversation messages", "conversation_id", conversationID, "error", err)
		return nil, fmt.Errorf("failed to get messages for conversation %d: %w", conversationID, err)
	}
	return messages, nil
}

func (s *sqlxStore) ClearMessages(ctx context.Context, conversationID int64) error {
	if conversationID == 0 {
		return fmt.Errorf("conversation_id cannot be zero")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?;`, conversationID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error clearing conversation messages", "conversation_id", conversationID, "error", err)
		return fmt.Errorf("failed to clear messages for conversation %d: %w", conversationID, err)
	}

	count, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Cleared conversation messages", "conversation_id", conversationID, "count", count)
	return nil
}

func (s *sqlxStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error) {
	if username == "" || email == "" || passwordHash == "" {
		return nil, fmt.Errorf("username, email, and password hash are all required")
	}

	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	query := `
        INSERT INTO users (username, email, password_hash, created_at)
        VALUES (:username, :email, :password_hash, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, user)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating user", "username", username, "error", err)
		return nil, fmt.Errorf("failed to create user %q: %w", username, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		user.ID = id
	}

	s.logger.InfoContext(ctx, "User created", "user_id", user.ID, "username", username)
	return user, nil
}

func (s *sqlxStore) UserByUsername(ctx context.Context, username string) (*User, error) {
	return s.userBy(ctx, "username", username)
}

func (s *sqlxStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.userBy(ctx, "email", email)
}

func (s *sqlxStore) userBy(ctx context.Context, column, value string) (*User, error) {
	var user User
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE ` + column + ` = ?;`
	err := s.db.GetContext(ctx, &user, query, value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "by", column, "error", err)
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return &user, nil
}

func (s *sqlxStore) CreateAuthSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	if token == "" {
		return fmt.Errorf("session token cannot be empty")
	}
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}

	query := `INSERT INTO auth_sessions (token, user_id, expires_at) VALUES (?, ?, ?);`
	if _, err := s.db.ExecContext(ctx, query, token, userID, expiresAt.UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error creating auth session", "user_id", userID, "error", err)
		return fmt.Errorf("failed to create auth session for user %d: %w", userID, err)
	}
	return nil
}

func (s *sqlxStore) AuthSessionUser(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}

	var user User
	query := `
        SELECT u.id, u.username, u.email, u.password_hash, u.created_at
        FROM auth_sessions s
        JOIN users u ON u.id = s.user_id
        WHERE s.token = ? AND s.expires_at > ?;
    `
	err := s.db.GetContext(ctx, &user, query, token, time.Now().UTC())
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error resolving auth session", "error", err)
		return nil, fmt.Errorf("failed to resolve auth session: %w", err)
	}
	return &user, nil
}

func (s *sqlxStore) DeleteAuthSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE token = ?;`, token); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting auth session", "error", err)
		return fmt.Errorf("failed to delete auth session: %w", err)
	}
	return nil
}

func (s *sqlxStore) DeleteExpiredAuthSessions(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE expires_at <= ?;`, time.Now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting expired auth sessions", "error", err)
		return 0, fmt.Errorf("failed to delete expired auth sessions: %w", err)
	}

	count, _ := result.RowsAffected()
	if count > 0 {
		s.logger.InfoContext(ctx, "Deleted expired auth sessions", "count", count)
	}
	return count, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
