package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"fairytale-chat/internal/models"
)

const emailStyle = "font-family:ui-sans-serif,system-ui,-apple-system,Segoe UI,Roboto,Helvetica,Arial;"

var (
	markdownSpecial = regexp.MustCompile("([\\\\`*_{}\\[\\]()#+\\-.!|<>&~])")
	backtickRun     = regexp.MustCompile("`+")

	// Raw HTML in customer-provided text is omitted, not rendered
	markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify))
)

// Subject is the email subject for order
func Subject(order models.OrderDraft) string {
	name := order.Customer.Name
	if strings.TrimSpace(name) == "" {
		name = "Customer"
	}
	return "New Fairytale Farms Order — " + name
}

// FormatItem renders one line item the way the bakery reads them
func FormatItem(item models.LineItem) string {
	switch item.Type {
	case "cookie":
		return fmt.Sprintf("Cookie — %s x %d", item.Flavor, item.Qty)
	case "brownie":
		return fmt.Sprintf("Brownie — %s x %d", item.Variant, item.Qty)
	case "cake":
		if item.Size != "" {
			return fmt.Sprintf("Cake — %s (%s) x %d", item.Flavor, item.Size, item.Qty)
		}
		return fmt.Sprintf("Cake — %s x %d", item.Flavor, item.Qty)
	default:
		return fmt.Sprintf("%s x %d", item.Type, item.Qty)
	}
}

// RenderMarkdown renders the order summary as Markdown
func RenderMarkdown(order models.OrderDraft) (string, error) {
	pretty, err := json.MarshalIndent(order, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal order: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("## New Order\n\n")
	fmt.Fprintf(&sb, "**Name:** %s\n\n", escape(order.Customer.Name))
	fmt.Fprintf(&sb, "**Email:** %s\n\n", escape(order.Customer.Email))
	fmt.Fprintf(&sb, "**Phone:** %s\n\n", escape(order.Customer.Phone))
	fmt.Fprintf(&sb, "**Instagram:** %s\n\n", escape(order.Customer.Instagram))

	sb.WriteString("### Pickup\n\n")
	fmt.Fprintf(&sb, "%s @ %s \\(%s\\)\n\n", escape(order.Pickup.Date), escape(order.Pickup.Time), escape(string(order.Pickup.Method)))
	if order.Pickup.Address != "" {
		fmt.Fprintf(&sb, "**Address:** %s\n\n", escape(order.Pickup.Address))
	}

	sb.WriteString("### Items\n\n")
	for _, item := range order.Items {
		fmt.Fprintf(&sb, "- %s\n", escape(FormatItem(item)))
	}
	sb.WriteString("\n")

	sb.WriteString("### Add-ons\n\n")
	milk := "No"
	if order.AddOns.Milk {
		milk = "Yes"
	}
	fmt.Fprintf(&sb, "Milk: %s\n\n", milk)

	if order.Notes != "" {
		fmt.Fprintf(&sb, "### Notes\n\n%s\n\n", escape(order.Notes))
	}

	sb.WriteString("### Raw JSON\n\n")
	fence := codeFence(string(pretty))
	fmt.Fprintf(&sb, "%sjson\n%s\n%s\n", fence, pretty, fence)
	return sb.String(), nil
}

// RenderHTML renders the order summary as the email body
func RenderHTML(order models.OrderDraft) (string, error) {
	md, err := RenderMarkdown(order)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString(`<div style="` + emailStyle + `">` + "\n")
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render order: %w", err)
	}
	buf.WriteString("</div>\n")
	return buf.String(), nil
}

// escape neutralizes Markdown syntax in customer-provided text
func escape(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return markdownSpecial.ReplaceAllString(s, "\\$1")
}

// codeFence returns a backtick fence longer than any backtick run in content
func codeFence(content string) string {
	longest := 0
	for _, run := range backtickRun.FindAllString(content, -1) {
		if len(run) > longest {
			longest = len(run)
		}
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}
