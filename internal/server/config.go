package server

import "time"

type Config struct {
	MongoURI        string
	MongoDB         string
	UsersCollection string
	BlobsCollection string
	JWTIssuer       string
	TokenTTL        time.Duration
}

func (c *Config) setDefaults() {
	if c.UsersCollection == "" {
		c.UsersCollection = "users"
	}
	if c.BlobsCollection == "" {
		c.BlobsCollection = "blobs"
	}
	if c.JWTIssuer == "" {
		c.JWTIssuer = "novault-backend"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 15 * time.Minute
	}
}
