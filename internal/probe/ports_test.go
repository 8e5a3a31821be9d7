package probe_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/fleet-monitor/internal/probe"
)

var _ = Describe("PortScanner", func() {
	var (
		log        *slog.Logger
		listener   net.Listener
		openPort   int
		closedPort int
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))

		var err error
		listener, err = net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		openPort = listener.Addr().(*net.TCPAddr).Port

		go func() {
			for {
				conn, err := listener.Accept()
				if err != nil {
					return
				}
				conn.Close()
			}
		}()

		closed, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		closedPort = closed.Addr().(*net.TCPAddr).Port
		closed.Close()
	})

	AfterEach(func() {
		listener.Close()
	})

	Context("with last-port aggregation", func() {
		It("should pass when the SSH port is closed but the service port is open", func() {
			p := probe.NewPortScanner(closedPort, time.Second, probe.AggregateLast, log)
			Expect(p.Check(context.Background(), "127.0.0.1", openPort)).To(BeTrue())
		})

		It("should fail when the SSH port is open but the service port is closed", func() {
			p := probe.NewPortScanner(openPort, time.Second, probe.AggregateLast, log)
			Expect(p.Check(context.Background(), "127.0.0.1", closedPort)).To(BeFalse())
		})

		It("should pass when both ports are open", func() {
			p := probe.NewPortScanner(openPort, time.Second, probe.AggregateLast, log)
			Expect(p.Check(context.Background(), "127.0.0.1", openPort)).To(BeTrue())
		})
	})

	Context("with all-ports aggregation", func() {
		It("should fail when the SSH port is closed", func() {
			p := probe.NewPortScanner(closedPort, time.Second, probe.AggregateAll, log)
			Expect(p.Check(context.Background(), "127.0.0.1", openPort)).To(BeFalse())
		})

		It("should pass when every port is open", func() {
			p := probe.NewPortScanner(openPort, time.Second, probe.AggregateAll, log)
			Expect(p.Check(context.Background(), "127.0.0.1", openPort)).To(BeTrue())
		})
	})

	It("should fail for an empty port list", func() {
		p := probe.NewPortScanner(0, 0, "", log)
		Expect(p.CheckPorts(context.Background(), "127.0.0.1", nil)).To(BeFalse())
	})
})
