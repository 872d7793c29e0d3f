package config

// SMTPConfig configures security notice emails. An empty host disables them.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST" env-default:""`
	Port     int    `env:"SMTP_PORT" env-default:"587"`
	Username string `env:"SMTP_USERNAME" env-default:""`
	Password string `env:"SMTP_PASSWORD" env-default:""`
	From     string `env:"SMTP_FROM" env-default:"noreply@ukhsc.org"`
	TLS      bool   `env:"SMTP_TLS" env-default:"true"`
}

func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}
