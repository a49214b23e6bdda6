package preview

import (
	"fmt"
	"net/url"
	"strings"
)

// EmbedSnippet returns the script tag a customer pastes into their site.
// The widget script is served from the backend's origin.
func EmbedSnippet(serverURL, botID string) string {
	origin := strings.TrimSuffix(serverURL, "/")
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		origin = u.Scheme + "://" + u.Host
	}
	return fmt.Sprintf(`<script src="%s/widget.js" data-bot-id="%s" async></script>`, origin, botID)
}
