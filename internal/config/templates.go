package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Trade Journal Configuration

[journal]
name = "main"
db_path = "journal.db"          # relative paths live next to this file
timezone = "UTC"                # IANA name used for sessions, hours and days
trash_retention_days = 30
workers = 4                     # concurrent recompute workers
batch_size = 100                # trades per store transaction when recomputing

[plan]
account_size = 10000.0
max_risk_percent = 1.0
min_risk_reward = 1.5
allowed_pairs = []
allowed_sessions = []
daily_loss_limit = 0.0          # 0 disables the check
weekly_loss_limit = 0.0

[scoring]
risk_tolerance = 0.10           # fraction above max_risk_percent still accepted
risk_exceeded = 20
below_min_rr = 15
stop_not_honored = 25
profit_left = 10
negative_tag = 5
most_negative_tag = 10
missing_rules = 10

[display]
currency = "USD"
rate = 1.0                      # display units per USD
locale = "en"
color_enabled = true
date_format = "2006-01-02 15:04"

[logging]
level = "info"                  # debug, info, warn, error
file = true
file_path = "logs/journal.log"
max_size_mb = 50
max_backups = 5
max_age_days = 30

[api]
addr = "127.0.0.1:8787"
allowed_origins = ["http://localhost:3000"]
metrics = true

[assistant]
enabled = true
model = "gpt-4o-mini"
max_tokens = 800
timeout = "60s"
rate_per_minute = 20.0          # 0 disables the limit
`

const settingsTemplate = `# Trade Journal Settings
# Pair keys, field IDs and keyword tags are case-insensitive.

[pairs.EURUSD]
pip_size = 0.0001
pip_value = 10.0

[pairs.GBPUSD]
pip_size = 0.0001
pip_value = 10.0

[pairs.AUDUSD]
pip_size = 0.0001
pip_value = 10.0

[pairs.USDJPY]
pip_size = 0.01
pip_value = 6.5

[pairs.XAUUSD]
pip_size = 0.1
pip_value = 10.0

# Used for any pair without its own entry. Required.
[pairs.Other]
pip_size = 0.0001
pip_value = 10.0

# Impact: "Most Positive", "Positive", "Neutral", "Negative", "Most Negative"
[keywords]
disciplined = "Most Positive"
patient = "Positive"
confident = "Positive"
hesitant = "Negative"
anxious = "Negative"
fomo = "Most Negative"
revenge = "Most Negative"

[[sessions]]
name = "Sydney"
start_hour = 21
end_hour = 6

[[sessions]]
name = "Tokyo"
start_hour = 0
end_hour = 9

[[sessions]]
name = "London"
start_hour = 7
end_hour = 16

[[sessions]]
name = "New York"
start_hour = 12
end_hour = 21

# Types: List, Button, Numeric, Date, Time
[[custom_fields]]
id = "setup_quality"
name = "Setup Quality"
type = "Button"
options = ["A+", "A", "B", "C"]

[[custom_fields]]
id = "confluence"
name = "Confluence"
type = "List"
options = ["Trendline", "Support", "Resistance", "Fibonacci", "Moving Average"]
multiple = true

[[strategies]]
id = "breakout"
name = "Breakout"
rules = ["Wait for candle close", "Volume confirms", "Risk within plan"]

[[strategies.setups]]
name = "A-grade breakout"
conditions = { setup_quality = ["A+", "A"], confluence = ["Resistance", "Support"] }

[[categories]]
name = "Quality"
field_id = "setup_quality"

[[categories.sub_categories]]
name = "High"
options = ["A+", "A"]

[[categories.sub_categories]]
name = "Low"
options = ["B", "C"]

# Levels and achievements use the built-in tables unless listed here.
`

const credentialsTemplate = `# Trade Journal Credentials
# Keep this file secure. OPENAI_API_KEY in the environment or a .env file
# takes precedence.

[openai]
api_key = ""
base_url = ""
`

var templates = map[string]struct {
	body string
	perm os.FileMode
}{
	"config":      {configTemplate, 0644},
	"settings":    {settingsTemplate, 0644},
	"credentials": {credentialsTemplate, 0600},
}

func createTemplateConfig(configDir, name string) error {
	tmpl, ok := templates[name]
	if !ok {
		return fmt.Errorf("no template for %s.toml", name)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(tmpl.body), tmpl.perm); err != nil {
		return fmt.Errorf("writing %s template: %w", name, err)
	}

	return nil
}
