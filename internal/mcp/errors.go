package mcp

import (
	"errors"
	"fmt"
	"regexp"

	"tideline-mcp/internal/marketdata"
)

const (
	pricingURL = "https://tideline.io/pricing"

	upgradeGuidance = `This data requires a higher subscription tier.

Available plans:
  - Starter ($29/mo): spot orderbooks and trades, 1 year of history
  - Trader ($99/mo): adds funding, open interest, and liquidations
  - Institutional ($499/mo): full history plus data quality and SLA reporting

Upgrade at ` + pricingURL

	setupInstructions = `TIDELINE_API_KEY is not configured, so no market data can be fetched.

To set it up:
  1. Create an account at https://tideline.io
  2. Generate a key under Account -> API Keys
  3. Set TIDELINE_API_KEY in this server's environment (or in a .env file)
  4. Restart the MCP server`
)

// Some tier-gate rejections arrive as plain 400s; they are recognized by
// message and given the same upgrade guidance as a 403.
var tierGatePattern = regexp.MustCompile(`(?i)plan only allows|upgrade|tier`)

// translateError turns an upstream failure into the text surfaced to the
// calling agent. First match wins. Pure: no network or state access.
func translateError(err error) string {
	var apiErr *marketdata.APIError
	if !errors.As(err, &apiErr) {
		return "Error: " + err.Error()
	}

	switch {
	case apiErr.Code == 403:
		return "Access denied: " + apiErr.Message + "\n\n" + upgradeGuidance
	case apiErr.Code == 429:
		return "Rate limited: " + apiErr.Message + "\n\nSlow down, or upgrade your plan for higher limits: " + pricingURL
	case apiErr.Code == 404:
		return "Not found: " + apiErr.Message + "\n\nUse the exchange's list_instruments tool to discover valid symbols."
	case apiErr.Code == 400 && tierGatePattern.MatchString(apiErr.Message):
		return "Access denied: " + apiErr.Message + "\n\n" + upgradeGuidance
	default:
		text := fmt.Sprintf("API error (%d): %s", apiErr.Code, apiErr.Message)
		if apiErr.RequestID != "" {
			text += "\nRequest ID: " + apiErr.RequestID
		}
		return text
	}
}
