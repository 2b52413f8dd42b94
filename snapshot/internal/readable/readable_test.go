package readable

import (
	"strings"
	"testing"
)

func TestMarkdown(t *testing.T) {
	raw := `<html><head><title>Checkout</title></head>
<body><h2>Your order</h2><p>Three items, <a href="/cart">view cart</a>.</p>
<script>track()</script></body></html>`

	c := New()
	md, err := c.Markdown(raw, "https://shop.example")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(md, "# Checkout") {
		t.Errorf("missing title heading:\n%s", md)
	}
	if !strings.Contains(md, "Your order") {
		t.Errorf("heading content lost:\n%s", md)
	}
	if strings.Contains(md, "track()") {
		t.Errorf("script content survived sanitation:\n%s", md)
	}
}

func TestMarkdownEmptyInput(t *testing.T) {
	c := New()
	if _, err := c.Markdown("<html><body></body></html>", ""); err == nil {
		t.Error("expected error for empty conversion result")
	}
}
