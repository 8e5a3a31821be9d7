package remote_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/angeloszaimis/fleet-monitor/internal/remote"
)

var _ = Describe("SSH", func() {
	var (
		tempDir   string
		knownKey  ssh.PublicKey
		otherKey  ssh.PublicKey
		knownFile string
		addr      net.Addr
	)

	newKey := func() ssh.PublicKey {
		pub, _, err := ed25519.GenerateKey(rand.Reader)
		Expect(err).NotTo(HaveOccurred())
		key, err := ssh.NewPublicKey(pub)
		Expect(err).NotTo(HaveOccurred())
		return key
	}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "remote-test-*")
		Expect(err).NotTo(HaveOccurred())

		knownKey = newKey()
		otherKey = newKey()
		knownFile = filepath.Join(tempDir, "known_hosts")
		line := knownhosts.Line([]string{"ci01.example.com"}, knownKey)
		Expect(os.WriteFile(knownFile, []byte(line+"\n"), 0600)).To(Succeed())

		addr = &net.TCPAddr{IP: net.ParseIP("10.0.0.7"), Port: 22}
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("HostKeyCallback", func() {
		Context("when unknown hosts are trusted", func() {
			It("should accept a known host with its key", func() {
				cb, err := remote.HostKeyCallback(knownFile, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(cb("ci01.example.com:22", addr, knownKey)).To(Succeed())
			})

			It("should accept an unknown host", func() {
				cb, err := remote.HostKeyCallback(knownFile, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(cb("ci02.example.com:22", addr, otherKey)).To(Succeed())
			})

			It("should reject a known host presenting a different key", func() {
				cb, err := remote.HostKeyCallback(knownFile, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(cb("ci01.example.com:22", addr, otherKey)).NotTo(Succeed())
			})

			It("should accept any host when the known hosts file is missing", func() {
				cb, err := remote.HostKeyCallback(filepath.Join(tempDir, "absent"), true)
				Expect(err).NotTo(HaveOccurred())
				Expect(cb("ci02.example.com:22", addr, otherKey)).To(Succeed())
			})
		})

		Context("when unknown hosts are not trusted", func() {
			It("should reject an unknown host", func() {
				cb, err := remote.HostKeyCallback(knownFile, false)
				Expect(err).NotTo(HaveOccurred())
				Expect(cb("ci02.example.com:22", addr, otherKey)).NotTo(Succeed())
			})

			It("should require a known hosts file", func() {
				_, err := remote.HostKeyCallback("", false)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("NewSSHDialer", func() {
		It("should require a user", func() {
			_, err := remote.NewSSHDialer(remote.Config{TrustUnknownHosts: true})
			Expect(err).To(MatchError(ContainSubstring("user")))
		})

		It("should defer a missing key to dial time", func() {
			dialer, err := remote.NewSSHDialer(remote.Config{
				User:              "build",
				KeyFiles:          []string{filepath.Join(tempDir, "id_missing")},
				TrustUnknownHosts: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(dialer.AuthError()).To(MatchError(ContainSubstring("no usable ssh key")))
		})

		It("should reject a corrupt key file", func() {
			keyFile := filepath.Join(tempDir, "id_corrupt")
			Expect(os.WriteFile(keyFile, []byte("not a key"), 0600)).To(Succeed())

			_, err := remote.NewSSHDialer(remote.Config{
				User:              "build",
				KeyFiles:          []string{keyFile},
				TrustUnknownHosts: true,
			})
			Expect(err).To(MatchError(ContainSubstring("parse key")))
		})

		It("should load an unencrypted private key", func() {
			_, priv, err := ed25519.GenerateKey(rand.Reader)
			Expect(err).NotTo(HaveOccurred())
			block, err := ssh.MarshalPrivateKey(priv, "")
			Expect(err).NotTo(HaveOccurred())

			keyFile := filepath.Join(tempDir, "id_ed25519")
			Expect(os.WriteFile(keyFile, pemEncode(block), 0600)).To(Succeed())

			dialer, err := remote.NewSSHDialer(remote.Config{
				User:              "build",
				KeyFiles:          []string{keyFile},
				KnownHostsFile:    knownFile,
				TrustUnknownHosts: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(dialer.Close()).To(Succeed())
		})
	})
})

func pemEncode(block *pem.Block) []byte {
	return pem.EncodeToMemory(block)
}
