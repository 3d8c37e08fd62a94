package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/supabase-keepalive/config"
)

var _ = Describe("Config", func() {
	var (
		tempDir string
		origDir string
	)

	BeforeEach(func() {
		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())

		Expect(os.Chdir(tempDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("with valid config file", func() {
			BeforeEach(func() {
				configContent := `
server:
  host: "127.0.0.1"
  port: 9090
  environment: "prod"

ping:
  timeout: "3s"
  concurrency: 2

logging:
  level: "debug"
`
				configPath := filepath.Join(tempDir, "config.yaml")
				err := os.WriteFile(configPath, []byte(configContent), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
			})

			It("should parse server settings", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Environment).To(Equal(config.EnvProd))
				Expect(cfg.Server.Address()).To(Equal("127.0.0.1:9090"))
			})

			It("should parse ping settings", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Ping.TimeoutDuration()).To(Equal(3 * time.Second))
				Expect(cfg.Ping.Concurrency).To(Equal(2))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelDebug))
			})
		})

		Context("with an invalid config file", func() {
			BeforeEach(func() {
				configContent := `
ping:
  timeout: "soon"
`
				err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(configContent), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should reject the configuration", func() {
				cfg, err := config.Load()
				Expect(err).To(HaveOccurred())
				Expect(cfg).To(BeNil())
			})
		})

		Context("with environment variables", func() {
			It("should use defaults when config file missing", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address()).To(Equal(":8080"))
				Expect(cfg.Ping.TimeoutDuration()).To(Equal(config.DefaultPingTimeout))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelInfo))
			})

			It("should take the listen port from PORT", func() {
				GinkgoT().Setenv("PORT", "9191")
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address()).To(Equal(":9191"))
			})

			It("should override nested keys", func() {
				GinkgoT().Setenv("PING_TIMEOUT", "750ms")
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Ping.TimeoutDuration()).To(Equal(750 * time.Millisecond))
			})

			It("should reject an unknown environment name", func() {
				GinkgoT().Setenv("SERVER_ENVIRONMENT", "qa")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should start even when the project list is broken", func() {
				GinkgoT().Setenv(config.EnvProjectsJSON, "{not json")
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())

				_, err = cfg.Targets()
				Expect(err).To(BeAssignableToTypeOf(&config.ConfigurationError{}))
			})

			It("should re-read the project list on every call", func() {
				GinkgoT().Setenv(config.EnvProjectsJSON, `[]`)
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())

				targets, err := cfg.Targets()
				Expect(err).NotTo(HaveOccurred())
				Expect(targets).To(BeEmpty())

				GinkgoT().Setenv(config.EnvProjectsJSON, `[{"name":"a","url":"https://a.supabase.co","anon_key":"k"}]`)
				targets, err = cfg.Targets()
				Expect(err).NotTo(HaveOccurred())
				Expect(targets).To(HaveLen(1))
			})
		})
	})

	Describe("Validate", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = &config.Config{
				Server:  config.ServerConfig{Port: 8080, Environment: config.EnvDev},
				Ping:    config.PingConfig{Timeout: "10s"},
				Logging: config.LoggingConfig{Level: config.LogLevelInfo},
			}
		})

		It("should accept a complete configuration", func() {
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should reject an out of range port", func() {
			cfg.Server.Port = 70000
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject a non-positive timeout", func() {
			cfg.Ping.Timeout = "0s"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject a negative concurrency", func() {
			cfg.Ping.Concurrency = -1
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject an unknown log level", func() {
			cfg.Logging.Level = "verbose"
			Expect(cfg.Validate()).NotTo(Succeed())
		})
	})

	Describe("Targets without a live source", func() {
		It("should parse the captured project list", func() {
			cfg := &config.Config{ProjectsJSON: `[{"name":"a","url":"https://a.supabase.co","anon_key":"k"}]`}
			targets, err := cfg.Targets()
			Expect(err).NotTo(HaveOccurred())
			Expect(targets).To(HaveLen(1))
		})
	})
})
