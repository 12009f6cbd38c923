package line

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/kyara/backend/internal/service/dedup"
)

const signatureHeader = "X-Line-Signature"

// maxConcurrentUsers bounds how many users of one webhook batch are served at once.
const maxConcurrentUsers = 8

// Responder produces the reply for one message.
type Responder interface {
	OnMessage(ctx context.Context, userID, text string) string
}

// Replier delivers a reply through a reply token.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// BotReplier sends replies with the Messaging API client.
type BotReplier struct {
	bot *linebot.Client
}

// NewBotReplier creates a Messaging API client.
func NewBotReplier(channelSecret, channelAccessToken string) (*BotReplier, error) {
	bot, err := linebot.New(channelSecret, channelAccessToken)
	if err != nil {
		return nil, err
	}
	return &BotReplier{bot: bot}, nil
}

// Reply implements Replier.
func (r *BotReplier) Reply(ctx context.Context, replyToken, text string) error {
	_, err := r.bot.ReplyMessage(replyToken, linebot.NewTextMessage(text)).WithContext(ctx).Do()
	return err
}

// Handler serves the LINE webhook.
type Handler struct {
	channelSecret string
	responder     Responder
	replier       Replier
	events        dedup.Store
}

// New creates a webhook handler. A nil events store disables de-duplication.
func New(channelSecret string, responder Responder, replier Replier, events dedup.Store) *Handler {
	if events == nil {
		events = dedup.Nop{}
	}
	return &Handler{
		channelSecret: channelSecret,
		responder:     responder,
		replier:       replier,
		events:        events,
	}
}

// RegisterRoutes registers the webhook route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/callback", h.handleCallback)
}

// handleCallback verifies the signature and answers every text message.
// Failures after verification are logged and still acknowledged with 200 so
// the platform does not redeliver.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(signatureHeader) == "" {
		http.Error(w, "Missing Signature", http.StatusBadRequest)
		return
	}

	events, err := linebot.ParseRequest(h.channelSecret, r)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			log.Printf("[line] invalid signature")
			http.Error(w, "Invalid Signature", http.StatusBadRequest)
			return
		}
		log.Printf("[line] failed to parse webhook: %v", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	// the reply must be delivered even if the platform hangs up early
	ctx := context.WithoutCancel(r.Context())

	// events of one user stay in order; users are served concurrently
	var order []string
	byUser := make(map[string][]*linebot.Event)
	for _, event := range events {
		userID := eventUserID(event)
		if _, ok := byUser[userID]; !ok {
			order = append(order, userID)
		}
		byUser[userID] = append(byUser[userID], event)
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentUsers)
	for _, userID := range order {
		batch := byUser[userID]
		g.Go(func() error {
			for _, event := range batch {
				h.handleEvent(ctx, event)
			}
			return nil
		})
	}
	_ = g.Wait()

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) handleEvent(ctx context.Context, event *linebot.Event) {
	if event.Type != linebot.EventTypeMessage {
		return
	}
	message, ok := event.Message.(*linebot.TextMessage)
	if !ok {
		return
	}

	userID := eventUserID(event)
	if userID == "" {
		log.Printf("[line] message event without user id")
		return
	}

	if event.WebhookEventID != "" {
		claimed, err := h.events.Claim(ctx, event.WebhookEventID)
		if err != nil {
			log.Printf("[line] dedup unavailable for event %s: %v", event.WebhookEventID, err)
		} else if !claimed {
			log.Printf("[line] skipping duplicate event %s (redelivery=%t)", event.WebhookEventID, event.DeliveryContext.IsRedelivery)
			return
		}
	}

	reply := h.responder.OnMessage(ctx, userID, message.Text)
	if err := h.replier.Reply(ctx, event.ReplyToken, reply); err != nil {
		log.Printf("[line] reply failed for user=%s: %v", userID, err)
	}
}

func eventUserID(event *linebot.Event) string {
	if event.Source == nil {
		return ""
	}
	return event.Source.UserID
}
