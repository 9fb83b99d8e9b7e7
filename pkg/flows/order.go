package flows

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/packfolio/concierge/pkg/domain"
)

const orderApology = "I couldn't create your order just now. Nothing was lost — please try again, or type reset to start over."

// placeOrder is the terminal step: it creates a draft order from the
// accumulated memory and, on success, asks the engine to clear the session.
func (h *Handler) placeOrder(ctx context.Context, mem *domain.Memory, lead string) (Result, error) {
	quantity := 1
	if raw, ok := mem.Clipboard["quantity"]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
			quantity = n
		}
	}

	order, err := h.Deps.Order(ctx, mem.SelectedVariantID, quantity, orderNote(mem), nil)
	if err != nil {
		h.Deps.logger().Error("draft order creation failed", "flow", mem.Flow, "err", err)
		return Result{Reply: join(lead, orderApology)}, nil
	}

	reply := "Your draft order is ready! Order " + order.OrderID + "."
	if order.InvoiceURL != "" {
		reply += " You can review and pay here: " + order.InvoiceURL
	}
	reply += "\n\nThanks for ordering with us — message me any time to start a new order."

	return Result{
		Reply:       join(lead, reply),
		MemoryReset: true,
		DraftOrder:  order,
	}, nil
}

// orderNote summarizes the conversation for the merchant's back office.
func orderNote(mem *domain.Memory) string {
	var b strings.Builder
	b.WriteString("flow: ")
	b.WriteString(string(mem.Flow))
	if mem.PackageName != "" {
		b.WriteString("\npackage: ")
		b.WriteString(mem.PackageName)
	}
	if mem.SelectedVariantName != "" {
		b.WriteString("\nvariant: ")
		b.WriteString(mem.SelectedVariantName)
	}

	keys := make([]string, 0, len(mem.Clipboard))
	for k := range mem.Clipboard {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("\n")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(mem.Clipboard[k])
	}
	return b.String()
}
