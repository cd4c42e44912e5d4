// Package upi is the payment-gateway client: it builds UPI payment
// orders, signs and verifies the orderID|paymentID pair with the
// shared HMAC secret, and optionally listens for asynchronous gateway
// callbacks over PubNub.
package upi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	pubnub "github.com/pubnub/go/v7"
	"github.com/shopspring/decimal"
)

// Callback statuses reported by the gateway.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type Config struct {
	// PayeeVPA is the merchant UPI address payments are collected on.
	PayeeVPA  string `json:"payeeVpa" mapstructure:"payee_vpa"`
	PayeeName string `json:"payeeName" mapstructure:"payee_name"`

	// HMACSecret signs and verifies orderID|paymentID pairs.
	HMACSecret string `json:"hmacSecret" mapstructure:"hmac_secret"`

	// OrderTTL bounds how long an order stays payable.
	OrderTTL time.Duration `json:"orderTtl" mapstructure:"order_ttl"`

	// PubNub callback listener; empty subscribe key disables it.
	CallbackSubKey  string `json:"callbackSubKey" mapstructure:"callback_subkey"`
	CallbackChannel string `json:"callbackChannel" mapstructure:"callback_channel"`
	CallbackUUID    string `json:"callbackUuid" mapstructure:"callback_uuid"`
}

// Order is a payable unit handed to the client. It is not persisted;
// the order id (which embeds its creation time) lives on the
// registration.
type Order struct {
	OrderID        string          `json:"order_id"`
	RegistrationID string          `json:"registration_id"`
	Amount         decimal.Decimal `json:"amount"`
	IntentURI      string          `json:"intent_uri"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

// Notification is an asynchronous callback from the gateway.
type Notification struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Signature string `json:"signature"`
}

type Gateway struct {
	payeeVPA  string
	payeeName string
	secret    []byte
	orderTTL  time.Duration

	sub *subscribe
}

// New builds the gateway client. When a callback subscribe key is
// configured it also opens the PubNub listener.
func New(ctx context.Context, cfg *Config) (*Gateway, error) {
	ttl := cfg.OrderTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	g := &Gateway{
		payeeVPA:  cfg.PayeeVPA,
		payeeName: cfg.PayeeName,
		secret:    []byte(cfg.HMACSecret),
		orderTTL:  ttl,
	}

	if cfg.CallbackSubKey != "" {
		pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.CallbackUUID))
		pnCfg.SubscribeKey = cfg.CallbackSubKey

		sub, err := g.newSubscription(ctx, pnCfg, cfg.CallbackChannel)
		if err != nil {
			return nil, fmt.Errorf("upi: callback subscription: %w", err)
		}
		g.sub = sub
	}

	return g, nil
}

// SetTranChannel routes decoded gateway callbacks to the given
// channel.
func (g *Gateway) SetTranChannel(ch chan *Notification) {
	if g.sub != nil {
		g.sub.ch = ch
	}
}

// CreateOrder builds a payable order for a registration. The order id
// embeds its creation time so expiry can be checked without storage.
func (g *Gateway) CreateOrder(registrationID string, amount decimal.Decimal) (*Order, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("upi: order amount must be positive, got %s", amount)
	}

	ref, err := randomRef(6)
	if err != nil {
		return nil, fmt.Errorf("upi: order ref: %w", err)
	}

	now := time.Now()
	orderID := fmt.Sprintf("ord_%d_%s", now.Unix(), ref)

	params := url.Values{}
	params.Set("pa", g.payeeVPA)
	params.Set("pn", g.payeeName)
	params.Set("am", amount.StringFixed(2))
	params.Set("cu", "INR")
	params.Set("tr", orderID)
	params.Set("tn", fmt.Sprintf("Registration %s", registrationID))

	return &Order{
		OrderID:        orderID,
		RegistrationID: registrationID,
		Amount:         amount,
		IntentURI:      "upi://pay?" + params.Encode(),
		CreatedAt:      now,
		ExpiresAt:      now.Add(g.orderTTL),
	}, nil
}

// OrderExpired reports whether an order id is past its TTL. Unparsable
// ids count as expired.
func (g *Gateway) OrderExpired(orderID string) bool {
	parts := strings.Split(orderID, "_")
	if len(parts) != 3 || parts[0] != "ord" {
		return true
	}
	unix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return true
	}
	return time.Since(time.Unix(unix, 0)) > g.orderTTL
}

// Sign computes the gateway signature over an orderID|paymentID pair.
func (g *Gateway) Sign(orderID, paymentID string) string {
	return Hmac256([]byte(orderID+"|"+paymentID), g.secret)
}

// Verify checks a presented signature in constant time.
func (g *Gateway) Verify(orderID, paymentID, signature string) bool {
	return VerifyHMAC([]byte(orderID+"|"+paymentID), g.secret, signature)
}

type subscribe struct {
	pn  *pubnub.PubNub
	lis *pubnub.Listener
	ch  chan *Notification
}

func (g *Gateway) newSubscription(ctx context.Context, pnCfg *pubnub.Config, channel string) (*subscribe, error) {
	sub := &subscribe{
		pn:  pubnub.NewPubNub(pnCfg),
		lis: pubnub.NewListener(),
	}

	go sub.processSubscription(ctx)

	sub.pn.AddListener(sub.lis)
	sub.pn.Subscribe().Channels([]string{channel}).Execute()

	return sub, nil
}

func (s *subscribe) processSubscription(ctx context.Context) {
	for {
		select {
		case st := <-s.lis.Status:
			switch st.Category {
			case pubnub.PNConnectedCategory:
				log.Println("upi: connected to callback channel")
			case pubnub.PNReconnectedCategory:
				log.Println("upi: reconnected to callback channel")
			case pubnub.PNDisconnectedCategory:
				log.Println("upi: disconnected from callback channel")
			default:
				log.Printf("upi: callback channel status %v", st.Category)
			}

		case message := <-s.lis.Message:
			raw, ok := message.Message.(string)
			if !ok {
				data, err := json.Marshal(message.Message)
				if err != nil {
					log.Printf("upi: unreadable callback: %v", err)
					continue
				}
				raw = string(data)
			}

			var n Notification
			if err := json.Unmarshal([]byte(raw), &n); err != nil {
				log.Printf("upi: malformed callback: %v", err)
				continue
			}
			if s.ch != nil {
				s.ch <- &n
			}

		case <-ctx.Done():
			log.Println("upi: callback listener stopped")
			return
		}
	}
}
