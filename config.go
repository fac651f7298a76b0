package main

type Config struct {
	Host           string `env:"HOST,default=localhost"`
	Port           int    `env:"PORT,default=8080"`
	RedisAddr      string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	JWTSecret      string `env:"JWT_SECRET,required=true"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=*"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`
}
