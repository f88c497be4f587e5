package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shopmate-ai/shopmate/internal/chat"
	"github.com/shopmate-ai/shopmate/internal/config"
	"github.com/shopmate-ai/shopmate/internal/database"
)

func newTestServer(t *testing.T) (*httptest.Server, database.Store) {
	t.Helper()

	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	store := database.NewStore(db, nil)
	chatSvc := chat.NewService(store, store, store, nil, 6)

	cfg := &config.Config{
		ListenAddr:         ":0",
		LogLevel:           "error",
		DBPath:             ":memory:",
		SessionTTL:         time.Hour,
		ResultLimit:        6,
		CORSAllowedOrigins: []string{"*"},
	}

	server := NewServer(cfg, nil, store, chatSvc)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	return ts, store
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// registerUser signs up a user through the API so the client carries a valid
// session cookie afterwards.
func registerUser(t *testing.T, client *http.Client, baseURL, username string) {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "hunter22",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func seedProduct(t *testing.T, store database.Store, title, category string, price float64) *database.Product {
	t.Helper()
	p := &database.Product{Title: title, Category: category, Price: price, Rating: 4.5, Stock: 10}
	require.NoError(t, store.InsertProduct(context.Background(), p))
	return p
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)

	var body map[string]string
	decodeBody(t, resp, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
}

func TestRegisterAndLogin(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)

	registerUser(t, client, ts.URL, "alice")

	t.Run("duplicate username rejected", func(t *testing.T) {
		resp := postJSON(t, client, ts.URL+"/api/register", map[string]string{
			"username": "alice",
			"email":    "other@example.com",
			"password": "hunter22",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		resp := postJSON(t, client, ts.URL+"/api/register", map[string]string{
			"username": "alice2",
			"email":    "alice@example.com",
			"password": "hunter22",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		resp := postJSON(t, client, ts.URL+"/api/register", map[string]string{
			"username": "bob",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		resp := postJSON(t, newClient(t), ts.URL+"/api/login", map[string]string{
			"username": "alice",
			"password": "wrong",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("login succeeds", func(t *testing.T) {
		resp := postJSON(t, newClient(t), ts.URL+"/api/login", map[string]string{
			"username": "alice",
			"password": "hunter22",
		})
		var body map[string]any
		decodeBody(t, resp, &body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "alice", body["username"])
	})
}

func TestChatRequiresAuth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, newClient(t), ts.URL+"/api/chat", map[string]string{"message": "hello"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChatGreetingRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)
	registerUser(t, client, ts.URL, "alice")

	resp := postJSON(t, client, ts.URL+"/api/chat", map[string]string{"message": "hello"})
	var body struct {
		UserMessage string        `json:"user_message"`
		Reply       chat.BotReply `json:"bot_response"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "hello", body.UserMessage)
	require.Equal(t, chat.KindGreeting, body.Reply.Kind)
}

func TestChatEmptyMessage(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)
	registerUser(t, client, ts.URL, "alice")

	resp := postJSON(t, client, ts.URL+"/api/chat", map[string]string{"message": "   "})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatSearchAndHistory(t *testing.T) {
	ts, store := newTestServer(t)
	seedProduct(t, store, "Wireless Bluetooth Headphones", "Electronics", 79.99)

	client := newClient(t)
	registerUser(t, client, ts.URL, "alice")

	resp := postJSON(t, client, ts.URL+"/api/chat", map[string]string{"message": "show me wireless headphones"})
	var body struct {
		Reply chat.BotReply `json:"bot_response"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, chat.KindProducts, body.Reply.Kind)
	require.Len(t, body.Reply.Products, 1)
	require.Equal(t, "Wireless Bluetooth Headphones", body.Reply.Products[0].Title)

	histResp, err := client.Get(ts.URL + "/api/chat/history")
	require.NoError(t, err)

	var hist struct {
		Messages []database.Message `json:"messages"`
	}
	decodeBody(t, histResp, &hist)
	require.Equal(t, http.StatusOK, histResp.StatusCode)
	require.Len(t, hist.Messages, 2, "one user message and one bot reply")
	require.Equal(t, database.SenderUser, hist.Messages[0].Sender)
	require.Equal(t, database.SenderBot, hist.Messages[1].Sender)
}

func TestAddToCart(t *testing.T) {
	ts, store := newTestServer(t)
	product := seedProduct(t, store, "Smart Watch Pro", "Electronics", 299.99)

	client := newClient(t)
	registerUser(t, client, ts.URL, "alice")

	add := func() map[string]any {
		resp := postJSON(t, client, ts.URL+"/api/add-to-cart", map[string]any{
			"product_id": product.ID,
			"quantity":   1,
		})
		var body map[string]any
		decodeBody(t, resp, &body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return body
	}

	body := add()
	require.Equal(t, true, body["success"])
	require.Equal(t, "Smart Watch Pro added to cart!", body["message"])
	require.EqualValues(t, 1, body["cart_count"])

	// Adding the same product again keeps a single cart line.
	body = add()
	require.EqualValues(t, 1, body["cart_count"])

	t.Run("unknown product", func(t *testing.T) {
		resp := postJSON(t, client, ts.URL+"/api/add-to-cart", map[string]any{
			"product_id": 99999,
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("requires auth", func(t *testing.T) {
		resp := postJSON(t, newClient(t), ts.URL+"/api/add-to-cart", map[string]any{
			"product_id": product.ID,
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("cart count reflects lines", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/cart-count")
		require.NoError(t, err)

		var body map[string]int
		decodeBody(t, resp, &body)
		require.Equal(t, 1, body["count"])
	})
}

func TestCartCountAnonymous(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/cart-count")
	require.NoError(t, err)

	var body map[string]int
	decodeBody(t, resp, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Zero(t, body["count"], "anonymous callers get a zero count, not an error")
}

func TestClearChat(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)
	registerUser(t, client, ts.URL, "alice")

	t.Run("before any chat", func(t *testing.T) {
		resp := postJSON(t, client, ts.URL+"/api/clear-chat", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	resp := postJSON(t, client, ts.URL+"/api/chat", map[string]string{"message": "hello"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, client, ts.URL+"/api/clear-chat", nil)
	var body map[string]bool
	decodeBody(t, resp, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, body["success"])

	histResp, err := client.Get(ts.URL + "/api/chat/history")
	require.NoError(t, err)

	var hist struct {
		Messages []database.Message `json:"messages"`
	}
	decodeBody(t, histResp, &hist)
	require.Empty(t, hist.Messages, "clearing removes the messages but keeps the session")
}

func TestLogout(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)
	registerUser(t, client, ts.URL, "alice")

	resp := postJSON(t, client, ts.URL+"/api/logout", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, client, ts.URL+"/api/chat", map[string]string{"message": "hello"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
