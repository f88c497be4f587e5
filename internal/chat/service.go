package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopmate-ai/shopmate/internal/database"
)

// CartStore is the per-user cart collaborator. UpsertCartLine must be atomic
// per (user, product) key.
type CartStore interface {
	CartLines(ctx context.Context, userID int64) ([]database.CartLine, error)
	UpsertCartLine(ctx context.Context, userID, productID int64, deltaQty int) error
	CartCount(ctx context.Context, userID int64) (int, error)
}

// ConversationStore is the conversation history collaborator. Appends must
// not be torn; message order is insertion order.
type ConversationStore interface {
	EnsureConversation(ctx context.Context, userID int64, token string) (int64, error)
	ConversationIDByToken(ctx context.Context, userID int64, token string) (int64, error)
	AppendMessage(ctx context.Context, conversationID int64, sender, text string) error
	MessagesByConversation(ctx context.Context, conversationID int64) ([]database.Message, error)
	ClearMessages(ctx context.Context, conversationID int64) error
}

// Service is the conversation orchestrator. Each inbound message is processed
// to completion synchronously: normalize, classify, dispatch, persist the
// exchange, return the reply.
type Service struct {
	catalog CatalogStore
	cart    CartStore
	convs   ConversationStore
	logger  *slog.Logger
	limit   int
}

// NewService creates the orchestrator with its store collaborators. limit
// caps every product result set; values below 1 fall back to 6.
func NewService(catalog CatalogStore, cart CartStore, convs ConversationStore, logger *slog.Logger, limit int) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if limit < 1 {
		limit = 6
	}
	return &Service{
		catalog: catalog,
		cart:    cart,
		convs:   convs,
		logger:  logger.With("component", "chat"),
		limit:   limit,
	}
}

// Exchange is the result of processing one inbound message.
type Exchange struct {
	UserMessage string    `json:"user_message"`
	Reply       BotReply  `json:"bot_response"`
	Timestamp   time.Time `json:"timestamp"`
}

// Handle processes one raw user message within the conversation identified by
// token, persisting the user message and the bot reply in that order.
// Fails with ErrUnauthenticated when identity is missing and ErrEmptyInput
// when the trimmed text is empty; neither is persisted.
func (s *Service) Handle(ctx context.Context, userID int64, token, rawText string) (*Exchange, error) {
	if userID == 0 || token == "" {
		return nil, ErrUnauthenticated
	}

	trimmed := strings.TrimSpace(rawText)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}

	conversationID, err := s.convs.EnsureConversation(ctx, userID, token)
	if err != nil {
		return nil, err
	}

	normalized := Normalize(trimmed)
	intent := Classify(normalized)
	s.logger.DebugContext(ctx, "Classified message", "user_id", userID, "intent", intent.String())

	if err := s.convs.AppendMessage(ctx, conversationID, database.SenderUser, trimmed); err != nil {
		return nil, err
	}

	reply, err := s.dispatch(ctx, userID, intent, normalized)
	if err != nil {
		return nil, err
	}

	if err := s.convs.AppendMessage(ctx, conversationID, database.SenderBot, reply.Message); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Handled chat message",
		"user_id", userID, "intent", intent.String(), "reply_kind", reply.Kind)

	return &Exchange{
		UserMessage: trimmed,
		Reply:       reply,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// dispatch routes a classified message to its handler. Catalog queries are
// global; cart queries are scoped to the acting user.
func (s *Service) dispatch(ctx context.Context, userID int64, intent Intent, normalized string) (BotReply, error) {
	switch intent {
	case IntentGreeting:
		return greetingReply(), nil

	case IntentSearch:
		products, err := buildSearch(ctx, s.catalog, normalized, s.limit)
		if err != nil {
			return BotReply{}, err
		}
		if len(products) == 0 {
			return searchNoResultsReply(), nil
		}
		return productsReply(products, "Here are some great products I found for you:"), nil

	case IntentCartView:
		lines, err := s.cart.CartLines(ctx, userID)
		if err != nil {
			return BotReply{}, err
		}
		return formatCart(lines), nil

	case IntentAddToCartHint:
		return addToCartHintReply(), nil

	case IntentPriceFilter:
		products, maxPrice, err := buildPriceFilter(ctx, s.catalog, normalized, s.limit)
		if errors.Is(err, ErrUnparsablePrice) {
			return priceErrorReply(), nil
		}
		if err != nil {
			return BotReply{}, err
		}
		if len(products) == 0 {
			return priceErrorReply(), nil
		}
		return productsReply(products, fmt.Sprintf("Here are products under $%g:", maxPrice)), nil

	case IntentCategoryBrowse:
		word, _ := categoryWord(normalized)
		products, err := buildCategoryBrowse(ctx, s.catalog, word, s.limit)
		if err != nil {
			return BotReply{}, err
		}
		if len(products) == 0 {
			return categoryNoResultsReply(word), nil
		}
		return productsReply(products, fmt.Sprintf("Here are some great %s for you:", word)), nil

	case IntentHelp:
		return helpReply(), nil

	default:
		return fallbackReply(), nil
	}
}

// AddToCartResult reports the outcome of a cart add.
type AddToCartResult struct {
	Title     string `json:"title"`
	CartCount int    `json:"cart_count"`
}

// AddToCart adds quantity units of a product to the user's cart, creating or
// incrementing the single cart line for that (user, product) pair. A
// quantity below 1 defaults to 1. Fails with ErrProductNotFound when the
// product ID does not resolve.
func (s *Service) AddToCart(ctx context.Context, userID, productID int64, quantity int) (*AddToCartResult, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.catalog.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if err := s.cart.UpsertCartLine(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}

	count, err := s.cart.CartCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Added product to cart",
		"user_id", userID, "product_id", productID, "quantity", quantity)

	return &AddToCartResult{Title: product.Title, CartCount: count}, nil
}

// CartCount returns the number of cart lines for the user. An unauthenticated
// caller gets 0 rather than an error; this mirrors the original endpoint's
// permissive contract and is pinned by tests as current behavior.
func (s *Service) CartCount(ctx context.Context, userID int64) (int, error) {
	if userID == 0 {
		return 0, nil
	}
	return s.cart.CartCount(ctx, userID)
}

// History returns the full message history of the user's conversation,
// creating the conversation lazily on first access.
func (s *Service) History(ctx context.Context, userID int64, token string) ([]database.Message, error) {
	if userID == 0 || token == "" {
		return nil, ErrUnauthenticated
	}

	conversationID, err := s.convs.EnsureConversation(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	return s.convs.MessagesByConversation(ctx, conversationID)
}

// ClearConversation removes all messages of the conversation identified by
// token. The conversation entity itself survives the purge. Fails with
// ErrNoConversation when the token resolves to nothing.
func (s *Service) ClearConversation(ctx context.Context, userID int64, token string) error {
	if userID == 0 || token == "" {
		return ErrUnauthenticated
	}

	conversationID, err := s.convs.ConversationIDByToken(ctx, userID, token)
	if err != nil {
		return err
	}
	if conversationID == 0 {
		return ErrNoConversation
	}
	return s.convs.ClearMessages(ctx, conversationID)
}
