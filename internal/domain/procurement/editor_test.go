package procurement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumLines(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.TotalPrice)
	}
	return total
}

func TestEditor_ChangeQuantity(t *testing.T) {
	o := newPendingOrder(t)
	e := NewEditor(o)
	id := o.Lines[0].ID

	require.NoError(t, e.ChangeQuantity(id, 7))
	assert.Equal(t, "17.50", e.Lines()[0].TotalPrice.StringFixed(2))

	require.NoError(t, e.ChangeQuantity(id, 0))
	assert.Equal(t, 1, e.Lines()[0].QuantityOrdered)

	require.NoError(t, e.ChangeQuantity(id, -4))
	assert.Equal(t, 1, e.Lines()[0].QuantityOrdered)

	// the order itself is untouched until saved
	assert.Equal(t, 10, o.Lines[0].QuantityOrdered)

	assertDomainCode(t, e.ChangeQuantity(uuid.New(), 2), "LINE_NOT_FOUND")
}

func TestEditor_ChangeUnitPrice(t *testing.T) {
	o := newPendingOrder(t)
	e := NewEditor(o)
	id := o.Lines[0].ID

	require.NoError(t, e.ChangeUnitPrice(id, decimal.RequireFromString("0.333")))
	assert.Equal(t, "0.33", e.Lines()[0].UnitPrice.String())
	assert.Equal(t, "3.30", e.Lines()[0].TotalPrice.StringFixed(2))

	require.NoError(t, e.ChangeUnitPrice(id, decimal.NewFromInt(-1)))
	assert.True(t, e.Lines()[0].UnitPrice.IsZero())
	assert.True(t, e.Lines()[0].TotalPrice.IsZero())
}

func TestEditor_TotalPriceIsRoundedProduct(t *testing.T) {
	o := newPendingOrder(t)
	e := NewEditor(o)
	id := o.Lines[1].ID

	cases := []struct {
		qty       int
		price     string
		unitPrice string
		total     string
	}{
		{3, "1.005", "1.01", "3.03"},
		{7, "19.999", "20", "140"},
		{12, "0.125", "0.13", "1.56"},
		{3, "7.333", "7.33", "21.99"},
		{1, "0", "0", "0"},
	}
	for _, c := range cases {
		require.NoError(t, e.ChangeQuantity(id, c.qty))
		require.NoError(t, e.ChangeUnitPrice(id, decimal.RequireFromString(c.price)))
		line := e.Lines()[1]
		assert.Equal(t, c.unitPrice, line.UnitPrice.String(), "price=%s", c.price)
		assert.Equal(t, c.total, line.TotalPrice.String(), "qty=%d price=%s", c.qty, c.price)
		want := line.UnitPrice.Mul(decimal.NewFromInt(int64(c.qty))).Round(2)
		assert.True(t, want.Equal(line.TotalPrice))
		assert.True(t, sumLines(e.Lines()).Equal(e.Total()))
	}
}

func TestEditor_RemoveLine(t *testing.T) {
	o := newPendingOrder(t)
	e := NewEditor(o)

	require.NoError(t, e.RemoveLine(o.Lines[0].ID))
	require.Len(t, e.Lines(), 1)

	err := e.RemoveLine(o.Lines[1].ID)
	assertDomainCode(t, err, "CANNOT_REMOVE_LAST_LINE")
	assert.Len(t, e.Lines(), 1)

	assertDomainCode(t, e.RemoveLine(uuid.New()), "LINE_NOT_FOUND")
}

func TestEditor_AddLine(t *testing.T) {
	o := newPendingOrder(t)
	e := NewEditor(o)

	line, err := e.AddLine(catalogItem(t, "BOLT-9", "Bolt", 0.45))
	require.NoError(t, err)
	assert.Equal(t, 1, line.QuantityOrdered)
	assert.Equal(t, "0.45", line.UnitPrice.StringFixed(2))
	assert.NotEqual(t, uuid.Nil, line.ID)
	assert.Equal(t, o.ID, line.OrderID)

	_, err = e.AddLine(catalogItem(t, "WID-1", "Widget", 1))
	assertDomainCode(t, err, "DUPLICATE_SKU")

	inactive := catalogItem(t, "OLD-1", "Old", 1)
	inactive.Deactivate()
	_, err = e.AddLine(inactive)
	assertDomainCode(t, err, "ITEM_INACTIVE")
}

func TestPurchaseOrder_ApplyEdits(t *testing.T) {
	o := newPendingOrder(t)
	e := NewEditor(o)

	require.NoError(t, e.ChangeQuantity(o.Lines[0].ID, 2))
	require.NoError(t, e.RemoveLine(o.Lines[1].ID))
	_, err := e.AddLine(catalogItem(t, "BOLT-9", "Bolt", 0.45))
	require.NoError(t, err)
	require.NoError(t, e.SetHeader("Fabrikam", ReasonNewCustomer, "urgent"))

	require.NoError(t, o.ApplyEdits(requester, e))

	require.Len(t, o.Lines, 2)
	assert.Equal(t, "WID-1", o.Lines[0].SKU)
	assert.Equal(t, 2, o.Lines[0].QuantityOrdered)
	assert.Equal(t, "BOLT-9", o.Lines[1].SKU)
	assert.Equal(t, "Fabrikam", o.CustomerName)
	assert.Equal(t, ReasonNewCustomer, o.ReasonForRequest)
	assert.Equal(t, "urgent", o.Comments)
	assert.True(t, sumLines(o.Lines).Equal(o.TotalAmount))
	assert.Equal(t, "5.45", o.TotalAmount.StringFixed(2))
}

func TestPurchaseOrder_ApplyEdits_Guarded(t *testing.T) {
	o := newPendingOrder(t)
	e := NewEditor(o)
	assertDomainCode(t, o.ApplyEdits(approver, e), "FORBIDDEN")

	require.NoError(t, o.Approve(approver, ""))
	assertDomainCode(t, o.ApplyEdits(requester, e), "INVALID_STATE")

	other := newPendingOrder(t)
	assertDomainCode(t, other.ApplyEdits(requester, e), "INVALID_INPUT")
}

func TestEditor_SetHeader(t *testing.T) {
	e := NewEditor(newPendingOrder(t))
	assertDomainCode(t, e.SetHeader("x", "Whatever", ""), "INVALID_REASON")
}

func TestPurchaseOrder_AddLine_PriceHeldAtCents(t *testing.T) {
	o := newDraftOrder(t)

	line, err := o.AddLine(catalogItem(t, "BOLT-9", "Bolt", 1), 3, decimal.RequireFromString("7.333"))
	require.NoError(t, err)

	assert.Equal(t, "7.33", line.UnitPrice.String())
	assert.Equal(t, "21.99", line.TotalPrice.String())
	assert.True(t, line.UnitPrice.Mul(decimal.NewFromInt(3)).Round(2).Equal(line.TotalPrice))
	assert.Equal(t, "21.99", o.TotalAmount.String())
}
