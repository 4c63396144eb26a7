package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/cucumber/godog"
	"github.com/your-org/pharmacy-storefront/internal/infrastructure/kv"
	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
	"github.com/your-org/pharmacy-storefront/internal/storefront/pricing"
	"github.com/your-org/pharmacy-storefront/internal/storefront/wishlist"
)

type scenarioContext struct {
	ctx     context.Context
	api     *fakeAPI
	session *Session
	summary pricing.Summary
}

func (c *scenarioContext) reset() error {
	c.ctx = context.Background()
	c.api = newFakeAPI()
	s, err := Open(c.ctx, "scenario", newDeps(c.api, kv.NewMemory()))
	if err != nil {
		return err
	}
	c.session = s
	c.summary = pricing.Summary{}
	return nil
}

func (c *scenarioContext) anEmptyCart() error {
	if n := len(c.session.Cart().Lines()); n != 0 {
		return fmt.Errorf("expected empty cart, found %d lines", n)
	}
	return nil
}

func (c *scenarioContext) theCartHoldsProductWithQuantity(id string, qty int) error {
	if err := c.api.AddItem(c.ctx, item.Product{ID: id, Name: "Product " + id, UnitPriceUSD: 1}, qty); err != nil {
		return err
	}
	return c.session.Cart().Refresh(c.ctx)
}

func (c *scenarioContext) theLocalWishlistHoldsProduct(id string) error {
	return c.session.Wish(c.ctx, item.Payload{"id": id, "name": "Product " + id})
}

func (c *scenarioContext) theAPIRejectsCartAdditions() error {
	c.api.FailOn("add", errors.New("503 service unavailable"))
	return nil
}

func (c *scenarioContext) selectedLinesTotalling(usd float64) error {
	return c.theCartHoldsPricedProduct("1", usd)
}

func (c *scenarioContext) theCartHoldsPricedProduct(id string, usd float64) error {
	if err := c.api.AddItem(c.ctx, item.Product{ID: id, Name: "Product " + id, UnitPriceUSD: usd}, 1); err != nil {
		return err
	}
	return c.session.Cart().Refresh(c.ctx)
}

func (c *scenarioContext) iAddProductNamedPriced(id, name string, price float64) error {
	return c.session.AddToCart(c.ctx, item.Payload{"id": id, "name": name, "price": price}, 1)
}

func (c *scenarioContext) iSetTheQuantityOfTo(id string, qty int) error {
	c.session.Cart().SetQty(c.ctx, id, qty)
	return nil
}

func (c *scenarioContext) iToggleTheWishOf(id string) error {
	c.session.Cart().ToggleWish(c.ctx, id)
	return nil
}

func (c *scenarioContext) iPriceTheCart(method string, shipping, coupon float64) error {
	c.summary = c.session.Summary(SummaryOptions{PaymentMethod: method, ShippingKHR: shipping, CouponKHR: coupon})
	return nil
}

func (c *scenarioContext) theCartHasLines(n int) error {
	if got := c.session.Cart().Counts().Lines; got != n {
		return fmt.Errorf("cart has %d lines, want %d", got, n)
	}
	return nil
}

func (c *scenarioContext) line(id string) (item.CartLine, error) {
	l, ok := c.session.Cart().Line(id)
	if !ok {
		return item.CartLine{}, fmt.Errorf("no cart line %q", id)
	}
	return l, nil
}

func (c *scenarioContext) lineHasQuantity(id string, qty int) error {
	l, err := c.line(id)
	if err != nil {
		return err
	}
	if l.Quantity != qty {
		return fmt.Errorf("line %q quantity = %d, want %d", id, l.Quantity, qty)
	}
	return nil
}

func (c *scenarioContext) lineIsSelected(id string) error {
	l, err := c.line(id)
	if err != nil {
		return err
	}
	if !l.Selected {
		return fmt.Errorf("line %q is not selected", id)
	}
	return nil
}

func (c *scenarioContext) lineWish(id, not string) error {
	l, err := c.line(id)
	if err != nil {
		return err
	}
	want := not == ""
	if l.Wish != want {
		return fmt.Errorf("line %q wish = %v, want %v", id, l.Wish, want)
	}
	return nil
}

func (c *scenarioContext) theTotalQuantityIs(n int) error {
	if got := c.session.Cart().Counts().Quantity; got != n {
		return fmt.Errorf("total quantity = %d, want %d", got, n)
	}
	return nil
}

func (c *scenarioContext) theWishlistShowsEntriesFor(n int, origin, id string) error {
	count := 0
	for _, v := range c.session.WishlistView(c.ctx, "") {
		if v.ID == id && v.Origin == wishlist.Origin(origin) {
			count++
		}
	}
	if count != n {
		return fmt.Errorf("wishlist shows %d %s entries for %q, want %d", count, origin, id, n)
	}
	return nil
}

func amountIs(label string, got, want float64) error {
	if math.Abs(got-want) > 1e-6 {
		return fmt.Errorf("%s = %v, want %v", label, got, want)
	}
	return nil
}

func (c *scenarioContext) theSubtotalIs(want float64) error {
	return amountIs("subtotal", c.summary.SubtotalKHR, want)
}

func (c *scenarioContext) thePaymentAdjustmentIs(want float64) error {
	return amountIs("payment adjustment", c.summary.PaymentAdjustmentKHR, want)
}

func (c *scenarioContext) theTotalIs(want float64) error {
	return amountIs("total", c.summary.TotalKHR, want)
}

func (c *scenarioContext) checkoutIsDisabled() error {
	if c.summary.CanCheckout {
		return fmt.Errorf("checkout enabled at total %v", c.summary.TotalKHR)
	}
	if !c.summary.BelowMinimum {
		return fmt.Errorf("expected the below-minimum flag")
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	sc := &scenarioContext{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, sc.reset()
	})
	ctx.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if sc.session != nil {
			sc.session.Close()
		}
		return ctx, nil
	})

	// Given
	ctx.Step(`^an empty cart$`, sc.anEmptyCart)
	ctx.Step(`^the cart holds product "([^"]*)" with quantity (\d+)$`, sc.theCartHoldsProductWithQuantity)
	ctx.Step(`^the local wishlist holds product "([^"]*)"$`, sc.theLocalWishlistHoldsProduct)
	ctx.Step(`^the API rejects cart additions$`, sc.theAPIRejectsCartAdditions)
	ctx.Step(`^selected lines totalling (\d+\.\d+) USD$`, sc.selectedLinesTotalling)

	// When
	ctx.Step(`^I add product "([^"]*)" named "([^"]*)" priced (\d+\.\d+)$`, sc.iAddProductNamedPriced)
	ctx.Step(`^I set the quantity of "([^"]*)" to (\d+)$`, sc.iSetTheQuantityOfTo)
	ctx.Step(`^I toggle the wish of "([^"]*)"$`, sc.iToggleTheWishOf)
	ctx.Step(`^I price the cart with payment method "([^"]*)", shipping (\d+) and coupon (\d+)$`, sc.iPriceTheCart)

	// Then
	ctx.Step(`^the cart has (\d+) lines?$`, sc.theCartHasLines)
	ctx.Step(`^line "([^"]*)" has quantity (\d+)$`, sc.lineHasQuantity)
	ctx.Step(`^line "([^"]*)" is selected$`, sc.lineIsSelected)
	ctx.Step(`^line "([^"]*)" is (not )?wished$`, sc.lineWish)
	ctx.Step(`^the total quantity is (\d+)$`, sc.theTotalQuantityIs)
	ctx.Step(`^the wishlist shows (\d+) "([^"]*)" entr(?:y|ies) for "([^"]*)"$`, sc.theWishlistShowsEntriesFor)
	ctx.Step(`^the subtotal is (-?\d+) riel$`, sc.theSubtotalIs)
	ctx.Step(`^the payment adjustment is (-?\d+) riel$`, sc.thePaymentAdjustmentIs)
	ctx.Step(`^the total is (-?\d+) riel$`, sc.theTotalIs)
	ctx.Step(`^checkout is disabled$`, sc.checkoutIsDisabled)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
