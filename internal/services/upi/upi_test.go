package upi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway(t *testing.T) *Gateway {
	t.Helper()
	g, err := New(context.Background(), &Config{
		PayeeVPA:   "fest@upi",
		PayeeName:  "College Fest",
		HMACSecret: "test-secret",
		OrderTTL:   15 * time.Minute,
	})
	require.NoError(t, err)
	return g
}

func TestCreateOrder(t *testing.T) {
	g := testGateway(t)

	order, err := g.CreateOrder("reg_1", decimal.NewFromInt(150))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(order.OrderID, "ord_"))
	assert.Equal(t, "reg_1", order.RegistrationID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), order.ExpiresAt, time.Second)

	u, err := url.Parse(order.IntentURI)
	require.NoError(t, err)
	assert.Equal(t, "upi", u.Scheme)
	q := u.Query()
	assert.Equal(t, "fest@upi", q.Get("pa"))
	assert.Equal(t, "College Fest", q.Get("pn"))
	assert.Equal(t, "150.00", q.Get("am"))
	assert.Equal(t, "INR", q.Get("cu"))
	assert.Equal(t, order.OrderID, q.Get("tr"))
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	g := testGateway(t)

	_, err := g.CreateOrder("reg_1", decimal.Zero)
	assert.Error(t, err)

	_, err = g.CreateOrder("reg_1", decimal.NewFromInt(-5))
	assert.Error(t, err)
}

func TestSignVerify(t *testing.T) {
	g := testGateway(t)

	sig := g.Sign("ord_1_ABC", "UTR42")
	assert.True(t, g.Verify("ord_1_ABC", "UTR42", sig))

	// any tampering with order, payment or signature fails
	assert.False(t, g.Verify("ord_2_ABC", "UTR42", sig))
	assert.False(t, g.Verify("ord_1_ABC", "UTR43", sig))
	assert.False(t, g.Verify("ord_1_ABC", "UTR42", sig+"00"))
	assert.False(t, g.Verify("ord_1_ABC", "UTR42", ""))
}

func TestVerifyDiffersAcrossSecrets(t *testing.T) {
	g := testGateway(t)
	other, err := New(context.Background(), &Config{
		PayeeVPA:   "fest@upi",
		PayeeName:  "College Fest",
		HMACSecret: "another-secret",
		OrderTTL:   15 * time.Minute,
	})
	require.NoError(t, err)

	sig := g.Sign("ord_1_ABC", "UTR42")
	assert.False(t, other.Verify("ord_1_ABC", "UTR42", sig))
}

func TestOrderExpired(t *testing.T) {
	g := testGateway(t)

	fresh, err := g.CreateOrder("reg_1", decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.False(t, g.OrderExpired(fresh.OrderID))

	stale := fmt.Sprintf("ord_%d_ABCDEF", time.Now().Add(-time.Hour).Unix())
	assert.True(t, g.OrderExpired(stale))

	// unparsable ids count as expired
	assert.True(t, g.OrderExpired("garbage"))
	assert.True(t, g.OrderExpired("ord_notanumber_ABC"))
	assert.True(t, g.OrderExpired(""))
}
