package database

import "time"

// User represents a customer account.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// Product represents a catalog entry. The chat core only ever reads products;
// writes happen through the seeder.
type Product struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Price       float64   `db:"price"`
	Category    string    `db:"category"`
	Rating      float64   `db:"rating"`
	ImageURL    string    `db:"image_url"`
	Stock       int       `db:"stock"`
	CreatedAt   time.Time `db:"created_at"`
}

// CartLine is a per-user, per-product quantity record joined with the product
// fields the formatter needs. The (user, product) pair is unique; repeated
// adds increment the quantity.
type CartLine struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	ProductID int64     `db:"product_id"`
	Quantity  int       `db:"quantity"`
	AddedAt   time.Time `db:"added_at"`

	Title string  `db:"title"`
	Price float64 `db:"price"`
}

// Conversation is a chat session scoped to one user, identified by an opaque
// token. It survives message purges.
type Conversation struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Token     string    `db:"session_token"`
	CreatedAt time.Time `db:"created_at"`
}

// Message senders. Every user message is paired with exactly one bot message.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Message is a single chat message within a conversation. Immutable once
// created; insertion order is conversation order.
type Message struct {
	ID             int64     `db:"id" json:"id"`
	ConversationID int64     `db:"session_id" json:"-"`
	Content        string    `db:"message" json:"message"`
	Sender         string    `db:"sender" json:"sender"`
	Timestamp      time.Time `db:"timestamp" json:"timestamp"`
}

// AuthSession is a transport-layer login session backing the cookie identity.
type AuthSession struct {
	Token     string    `db:"token"`
	UserID    int64     `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
}
