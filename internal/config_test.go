package internal_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/frahmantamala/hr-approvals/internal"
)

var _ = Describe("Config", func() {
	load := func(yml string) *internal.Config {
		v := viper.New()
		v.SetConfigType("yml")
		internal.SetDefaults(v)
		Expect(v.ReadConfig(strings.NewReader(yml))).To(Succeed())

		var cfg internal.Config
		Expect(v.Unmarshal(&cfg)).To(Succeed())
		return &cfg
	}

	It("fills unset keys from the defaults", func() {
		cfg := load("database:\n  source: postgres://localhost/hr\n")

		Expect(cfg.Server.Port).To(Equal(8080))
		Expect(cfg.Server.ShutdownTimeout).To(Equal(30 * time.Second))
		Expect(cfg.Notification.Workers).To(Equal(4))
		Expect(cfg.Redis.Enabled()).To(BeFalse())
		Expect(cfg.Validate()).To(Succeed())
	})

	It("reads durations and the redis section", func() {
		cfg := load(`
database:
  source: postgres://localhost/hr
redis:
  addr: localhost:6379
notification:
  poll_timeout: 2s
`)
		Expect(cfg.Redis.Enabled()).To(BeTrue())
		Expect(cfg.Notification.PollTimeout).To(Equal(2 * time.Second))
	})

	It("reports every invalid section", func() {
		cfg := load("logging:\n  level: loud\nnotification:\n  workers: 0\n")

		err := cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("database config"))
		Expect(err.Error()).To(ContainSubstring("notification config"))
		Expect(err.Error()).To(ContainSubstring("logging config"))
	})
})
