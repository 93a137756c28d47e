package extract

import "fmt"

const PingPrompt = "Say 'test' in one word"

const systemPrompt = `You are an expert at extracting structured product information from HTML content.
Extract all relevant product details including title, price, location, description, condition, and images.
Be thorough and accurate. If information is not available, use null.

Answer with a single JSON object and nothing else, using exactly these keys:
  "title"        string, product title or name (required)
  "price"        string, price including currency (required)
  "location"     string or null, seller location
  "description"  string or null, product description
  "condition"    string or null, product condition (new, used, etc)
  "images"       array of {"url": string, "alt_text": string or null}
  "url"          string, product URL
  "seller_info"  string or null, seller information
  "html_content" string or null, leave null`

func SystemPrompt() string {
	return systemPrompt
}

func UserPrompt(markup string) string {
	return fmt.Sprintf("Extract product information from this HTML:\n\n%s", markup)
}
