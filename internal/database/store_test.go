package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	db, err := NewDB(":memory:")
	require.NoError(t, err, "in-memory database should open")
	t.Cleanup(func() { CloseDB(db) })

	return NewStore(db, nil)
}

func mustUser(t *testing.T, store Store, username string) *User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), username, username+"@example.com", "x")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	return user
}

func mustProduct(t *testing.T, store Store, title, category string, price float64) *Product {
	t.Helper()
	p := &Product{Title: title, Category: category, Price: price, Rating: 4.0, Stock: 5}
	require.NoError(t, store.InsertProduct(context.Background(), p))
	require.NotZero(t, p.ID)
	return p
}

func TestProductQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	headphones := mustProduct(t, store, "Wireless Bluetooth Headphones", "Electronics", 79.99)
	mouse := mustProduct(t, store, "Wireless Gaming Mouse", "Electronics", 59.99)
	novel := mustProduct(t, store, "Mystery Novel Collection", "Books", 19.99)

	t.Run("by category in catalog order", func(t *testing.T) {
		products, err := store.ProductsByCategory(ctx, "Electronics", 6)
		require.NoError(t, err)
		require.Len(t, products, 2)
		require.Equal(t, headphones.ID, products[0].ID)
		require.Equal(t, mouse.ID, products[1].ID)
	})

	t.Run("by keywords any token matches", func(t *testing.T) {
		products, err := store.ProductsByTitleKeywords(ctx, []string{"wireless", "novel"}, 6)
		require.NoError(t, err)
		require.Len(t, products, 3)
	})

	t.Run("keyword match is case-insensitive", func(t *testing.T) {
		products, err := store.ProductsByTitleKeywords(ctx, []string{"WIRELESS"}, 6)
		require.NoError(t, err)
		require.Len(t, products, 2)
	})

	t.Run("like wildcards in tokens are literal", func(t *testing.T) {
		products, err := store.ProductsByTitleKeywords(ctx, []string{"%"}, 6)
		require.NoError(t, err)
		require.Empty(t, products)
	})

	t.Run("by max price is inclusive", func(t *testing.T) {
		products, err := store.ProductsByMaxPrice(ctx, 59.99, 6)
		require.NoError(t, err)
		require.Len(t, products, 2)
		require.Equal(t, mouse.ID, products[0].ID)
		require.Equal(t, novel.ID, products[1].ID)
	})

	t.Run("first products respects limit", func(t *testing.T) {
		products, err := store.FirstProducts(ctx, 2)
		require.NoError(t, err)
		require.Len(t, products, 2)
		require.Equal(t, headphones.ID, products[0].ID)
	})

	t.Run("by id", func(t *testing.T) {
		p, err := store.ProductByID(ctx, novel.ID)
		require.NoError(t, err)
		require.NotNil(t, p)
		require.Equal(t, "Mystery Novel Collection", p.Title)

		missing, err := store.ProductByID(ctx, 99999)
		require.NoError(t, err)
		require.Nil(t, missing)
	})

	t.Run("count", func(t *testing.T) {
		count, err := store.CountProducts(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, count)
	})
}

func TestUpsertCartLineIncrements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := mustUser(t, store, "alice")
	product := mustProduct(t, store, "Smart Watch Pro", "Electronics", 299.99)

	require.NoError(t, store.UpsertCartLine(ctx, user.ID, product.ID, 1))
	require.NoError(t, store.UpsertCartLine(ctx, user.ID, product.ID, 2))

	lines, err := store.CartLines(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1, "repeated adds must collapse into one line")
	require.Equal(t, 3, lines[0].Quantity)
	require.Equal(t, "Smart Watch Pro", lines[0].Title)
	require.InDelta(t, 299.99, lines[0].Price, 0.001)

	count, err := store.CartCount(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count, "cart count is distinct lines, not total quantity")
}

func TestCartLinesAreScopedToUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustUser(t, store, "alice")
	bob := mustUser(t, store, "bob")
	product := mustProduct(t, store, "USB-C Fast Charger", "Electronics", 24.99)

	require.NoError(t, store.UpsertCartLine(ctx, alice.ID, product.ID, 1))

	lines, err := store.CartLines(ctx, bob.ID)
	require.NoError(t, err)
	require.Empty(t, lines)

	count, err := store.CartCount(ctx, bob.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestEnsureConversation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := mustUser(t, store, "alice")

	id1, err := store.EnsureConversation(ctx, user.ID, "token-1")
	require.NoError(t, err)
	require.NotZero(t, id1)

	id2, err := store.EnsureConversation(ctx, user.ID, "token-1")
	require.NoError(t, err)
	require.Equal(t, id1, id2, "same token must resolve to the same conversation")

	id3, err := store.EnsureConversation(ctx, user.ID, "token-2")
	require.NoError(t, err)
	require.NotEqual(t, id1, id3)
}

func TestConversationIDByToken(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := mustUser(t, store, "alice")

	id, err := store.ConversationIDByToken(ctx, user.ID, "nope")
	require.NoError(t, err)
	require.Zero(t, id, "unknown token resolves to zero without error")

	created, err := store.EnsureConversation(ctx, user.ID, "token-1")
	require.NoError(t, err)

	id, err = store.ConversationIDByToken(ctx, user.ID, "token-1")
	require.NoError(t, err)
	require.Equal(t, created, id)

	// Another user cannot resolve someone else's token.
	bob := mustUser(t, store, "bob")
	id, err = store.ConversationIDByToken(ctx, bob.ID, "token-1")
	require.NoError(t, err)
	require.Zero(t, id)
}

func TestMessagesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := mustUser(t, store, "alice")
	convID, err := store.EnsureConversation(ctx, user.ID, "token-1")
	require.NoError(t, err)

	require.NoError(t, store.AppendMessage(ctx, convID, SenderUser, "hello"))
	require.NoError(t, store.AppendMessage(ctx, convID, SenderBot, "Hi there!"))

	messages, err := store.MessagesByConversation(ctx, convID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, SenderUser, messages[0].Sender)
	require.Equal(t, "hello", messages[0].Content)
	require.Equal(t, SenderBot, messages[1].Sender)

	require.NoError(t, store.ClearMessages(ctx, convID))

	messages, err = store.MessagesByConversation(ctx, convID)
	require.NoError(t, err)
	require.Empty(t, messages)

	// Clearing messages keeps the conversation itself.
	id, err := store.ConversationIDByToken(ctx, user.ID, "token-1")
	require.NoError(t, err)
	require.Equal(t, convID, id)
}

func TestAppendMessageRejectsBadInput(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := mustUser(t, store, "alice")
	convID, err := store.EnsureConversation(ctx, user.ID, "token-1")
	require.NoError(t, err)

	require.Error(t, store.AppendMessage(ctx, convID, "robot", "hi"))
	require.Error(t, store.AppendMessage(ctx, convID, SenderUser, ""))
	require.Error(t, store.AppendMessage(ctx, 0, SenderUser, "hi"))
}

func TestUserLookups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := mustUser(t, store, "alice")

	byName, err := store.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	require.Equal(t, created.ID, byName.ID)

	byEmail, err := store.UserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	require.Equal(t, created.ID, byEmail.ID)

	missing, err := store.UserByUsername(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestAuthSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := mustUser(t, store, "alice")

	require.NoError(t, store.CreateAuthSession(ctx, "live-token", user.ID, time.Now().Add(time.Hour)))
	require.NoError(t, store.CreateAuthSession(ctx, "dead-token", user.ID, time.Now().Add(-time.Hour)))

	resolved, err := store.AuthSessionUser(ctx, "live-token")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	require.Equal(t, user.ID, resolved.ID)

	expired, err := store.AuthSessionUser(ctx, "dead-token")
	require.NoError(t, err)
	require.Nil(t, expired, "expired sessions must not resolve")

	unknown, err := store.AuthSessionUser(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, unknown)

	deleted, err := store.DeleteExpiredAuthSessions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	require.NoError(t, store.DeleteAuthSession(ctx, "live-token"))
	resolved, err = store.AuthSessionUser(ctx, "live-token")
	require.NoError(t, err)
	require.Nil(t, resolved)
}

func TestRunSQLMaintenance(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.RunSQLMaintenance(context.Background()))
}
