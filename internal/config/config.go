package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	DatabaseURL string `env:"DATABASE_URL"`

	JWT    JWT     `envPrefix:"JWT_"`
	SMTP   SMTP    `envPrefix:"SMTP_"`
	Upload Uploads `envPrefix:"UPLOAD_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type JWT struct {
	Secret string `env:"SECRET"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"Urban Threads <no-reply@urbanthreads.example>"`
}

type Uploads struct {
	Dir         string `env:"DIR" envDefault:"uploads/chat-attachments"`
	MaxFileSize int64  `env:"MAX_FILE_SIZE" envDefault:"10485760"`
}
