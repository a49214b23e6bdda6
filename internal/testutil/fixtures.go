package testutil

// FixtureBot returns a bot as the backend reports it.
func FixtureBot() map[string]interface{} {
	return map[string]interface{}{
		"id":               "bot_123",
		"name":             "Support Bot",
		"media_type":       "text",
		"color":            "#2563EB",
		"font":             "Inter",
		"font_style":       "normal",
		"font_size":        "14px",
		"default_model":    "gpt-4o-mini",
		"prompt":           "You are a helpful support agent.",
		"welcome_message":  "Hi, I'm {bot_name}!",
		"calendly_enabled": false,
		"training_status":  "trained",
	}
}

// FixtureFile returns a persisted training file.
func FixtureFile(id, name string) map[string]interface{} {
	return map[string]interface{}{
		"id":          id,
		"name":        name,
		"s3_key":      "bots/bot_123/" + name,
		"size":        1024,
		"uploaded_at": "2026-01-02T15:04:05Z",
		"type":        "application/pdf",
	}
}

// FixtureWorkspace returns a workspace object.
func FixtureWorkspace() map[string]interface{} {
	return map[string]interface{}{
		"id":   "ws_1",
		"name": "Acme",
	}
}
