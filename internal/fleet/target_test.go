package fleet_test

import (
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/fleet-monitor/internal/fleet"
)

var _ = Describe("Target", func() {
	It("should expose its immutable attributes", func() {
		t := fleet.New("ci01", mustParseURL("https://ci.example.com"), 8443, true)

		Expect(t.Host()).To(Equal("ci01"))
		Expect(t.Port()).To(Equal(8443))
		Expect(t.Active()).To(BeTrue())
		Expect(t.URL().String()).To(Equal("https://ci.example.com"))
	})

	Describe("Endpoint", func() {
		It("should append the service port", func() {
			t := fleet.New("ci01", mustParseURL("https://ci.example.com"), 8443, true)
			Expect(t.Endpoint()).To(Equal("https://ci.example.com:8443"))
		})

		It("should replace a port already present in the URL", func() {
			t := fleet.New("ci01", mustParseURL("http://ci.example.com:80/login"), 8080, true)
			Expect(t.Endpoint()).To(Equal("http://ci.example.com:8080/login"))
		})
	})

	Describe("SSHAddress", func() {
		It("should qualify a short hostname with the URL domain", func() {
			t := fleet.New("ci01", mustParseURL("https://ci.example.com"), 8443, true)
			Expect(t.Domain()).To(Equal("example.com"))
			Expect(t.SSHAddress()).To(Equal("ci01.example.com"))
		})

		It("should keep a fully qualified hostname", func() {
			t := fleet.New("ci01.corp.net", mustParseURL("https://ci.example.com"), 8443, true)
			Expect(t.SSHAddress()).To(Equal("ci01.corp.net"))
		})

		It("should keep an IP address", func() {
			t := fleet.New("10.0.0.7", mustParseURL("https://ci.example.com"), 8443, true)
			Expect(t.SSHAddress()).To(Equal("10.0.0.7"))
		})

		It("should keep a short hostname when the URL has no domain", func() {
			t := fleet.New("ci01", mustParseURL("http://localhost"), 8080, true)
			Expect(t.SSHAddress()).To(Equal("ci01"))
		})
	})
})

func mustParseURL(rawURL string) *url.URL {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return u
}
