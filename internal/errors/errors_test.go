package errors_test

import (
	stderrors "errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/fleet-monitor/internal/errors"
)

var _ = Describe("AppError", func() {
	It("should include the cause in the message", func() {
		err := errors.ConfigError("invalid configuration", fmt.Errorf("ssh.user: cannot be blank"))
		Expect(err.Error()).To(Equal("invalid configuration: ssh.user: cannot be blank"))
	})

	It("should unwrap to its cause", func() {
		cause := stderrors.New("no such file")
		err := errors.InventoryError("failed to read inventory", cause)
		Expect(stderrors.Is(err, cause)).To(BeTrue())
	})

	DescribeTable("ExitCode",
		func(err error, want int) {
			Expect(errors.ExitCode(err)).To(Equal(want))
		},
		Entry("nil", nil, errors.ExitSuccess),
		Entry("plain error", stderrors.New("boom"), errors.ExitGeneralError),
		Entry("config", errors.ConfigError("bad", nil), errors.ExitConfigError),
		Entry("inventory", errors.InventoryError("bad", nil), errors.ExitInventoryError),
		Entry("report", errors.ReportError("bad", nil), errors.ExitReportError),
		Entry("wrapped report", fmt.Errorf("run: %w", errors.ReportError("bad", nil)), errors.ExitReportError),
		Entry("investigation", errors.InvestigationNeeded([]string{"ci01"}), errors.ExitInvestigationFound),
	)
})
