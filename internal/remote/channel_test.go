package remote_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/fleet-monitor/internal/remote"
	"github.com/angeloszaimis/fleet-monitor/internal/retry"
	"github.com/angeloszaimis/fleet-monitor/pkg/logger"
)

var _ = Describe("Channel", func() {
	var (
		log     *slog.Logger
		ctx     context.Context
		failure error
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		ctx = context.Background()
		failure = fmt.Errorf("ci01: %w", remote.ErrAuth)
	})

	Describe("CheckShellReachable", func() {
		It("should pass when every attempt connects", func() {
			dialer := &scriptedDialer{}
			channel := remote.NewChannel(dialer, retry.DefaultPolicy(), log)

			Expect(channel.CheckShellReachable(ctx, "ci01")).To(BeTrue())
			Expect(dialer.dials).To(Equal(3))
		})

		It("should fail when only the final attempt fails", func() {
			dialer := &scriptedDialer{outcomes: []error{nil, nil, failure}}
			channel := remote.NewChannel(dialer, retry.DefaultPolicy(), log)

			Expect(channel.CheckShellReachable(ctx, "ci01")).To(BeFalse())
			Expect(dialer.dials).To(Equal(3))
		})

		It("should pass when only the final attempt connects", func() {
			dialer := &scriptedDialer{outcomes: []error{failure, failure, nil}}
			channel := remote.NewChannel(dialer, retry.DefaultPolicy(), log)

			Expect(channel.CheckShellReachable(ctx, "ci01")).To(BeTrue())
		})

		It("should fail when all attempts fail", func() {
			dialer := &scriptedDialer{outcomes: []error{failure, failure, failure}}
			channel := remote.NewChannel(dialer, retry.DefaultPolicy(), log)

			Expect(channel.CheckShellReachable(ctx, "ci01")).To(BeFalse())
			Expect(dialer.dials).To(Equal(3))
		})

		It("should close every session it opens", func() {
			dialer := &scriptedDialer{outcomes: []error{nil, failure, nil}}
			channel := remote.NewChannel(dialer, retry.DefaultPolicy(), log)

			channel.CheckShellReachable(ctx, "ci01")

			Expect(dialer.sessions).To(HaveLen(2))
			for _, s := range dialer.sessions {
				Expect(s.closed).To(BeTrue())
			}
		})

		It("should honour a configured attempt count", func() {
			dialer := &scriptedDialer{}
			policy := retry.Policy{MaxAttempts: 5, Backoff: retry.BackoffConstant}
			channel := remote.NewChannel(dialer, policy, log)

			Expect(channel.CheckShellReachable(ctx, "ci01")).To(BeTrue())
			Expect(dialer.dials).To(Equal(5))
		})
	})

	Describe("attempt logging", func() {
		It("should log attempts through the logger carried by the context", func() {
			var buf bytes.Buffer
			scoped := slog.New(slog.NewTextHandler(&buf, nil)).With(
				slog.String("run_id", "run-7"),
				slog.String("host", "ci01"),
				slog.String("probe", "service_running"),
			)
			dialer := &scriptedDialer{outcomes: []error{failure, failure, failure}}
			channel := remote.NewChannel(dialer, retry.DefaultPolicy(), log)

			Expect(channel.CheckShellReachable(logger.NewContext(ctx, scoped), "ci01.example.com")).To(BeFalse())

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			Expect(lines).To(HaveLen(4))
			for _, line := range lines {
				Expect(line).To(ContainSubstring("run_id=run-7"))
				Expect(line).To(ContainSubstring("probe=service_running"))
				Expect(line).To(ContainSubstring("outcome=fail"))
			}
		})
	})

	Describe("RunRemoteCommand", func() {
		It("should return the command output and close the session", func() {
			dialer := &scriptedDialer{output: remote.Output{Stdout: "4242\n"}}
			channel := remote.NewChannel(dialer, retry.DefaultPolicy(), log)

			out, err := channel.RunRemoteCommand(ctx, "ci01", "pgrep java")

			Expect(err).NotTo(HaveOccurred())
			Expect(out.Stdout).To(Equal("4242\n"))
			Expect(dialer.dials).To(Equal(1))
			Expect(dialer.sessions[0].commands).To(Equal([]string{"pgrep java"}))
			Expect(dialer.sessions[0].closed).To(BeTrue())
		})

		It("should propagate connection failures", func() {
			dialer := &scriptedDialer{outcomes: []error{failure}}
			channel := remote.NewChannel(dialer, retry.DefaultPolicy(), log)

			_, err := channel.RunRemoteCommand(ctx, "ci01", "true")

			Expect(err).To(MatchError(remote.ErrAuth))
			Expect(dialer.dials).To(Equal(1))
		})

		It("should propagate execution failures and still close the session", func() {
			execErr := fmt.Errorf("ci01: %w", remote.ErrExec)
			dialer := &scriptedDialer{runErr: execErr}
			channel := remote.NewChannel(dialer, retry.DefaultPolicy(), log)

			_, err := channel.RunRemoteCommand(ctx, "ci01", "true")

			Expect(err).To(MatchError(remote.ErrExec))
			Expect(dialer.sessions[0].closed).To(BeTrue())
		})
	})
})
