// Package mocks provides testify mocks for the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"jsgate.dev/pkg/jsgate/internal/domain"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

// MockWorkflow is a mock implementation of domain.Workflow.
type MockWorkflow struct {
	mock.Mock
}

var _ domain.Workflow = (*MockWorkflow)(nil)

// NewMockWorkflow creates a MockWorkflow whose expectations are asserted
// when the test ends.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	w := &MockWorkflow{}
	w.Mock.Test(t)

	t.Cleanup(func() { w.AssertExpectations(t) })

	return w
}

// Scan provides a mock function.
func (w *MockWorkflow) Scan(ctx context.Context, args domain.ScanArgs) error {
	return w.Called(ctx, args).Error(0)
}

// List provides a mock function.
func (w *MockWorkflow) List(ctx context.Context, args domain.ListArgs) error {
	return w.Called(ctx, args).Error(0)
}

// View provides a mock function.
func (w *MockWorkflow) View(ctx context.Context, args domain.ViewArgs) error {
	return w.Called(ctx, args).Error(0)
}

// Merge provides a mock function.
func (w *MockWorkflow) Merge(ctx context.Context, args domain.MergeArgs) error {
	return w.Called(ctx, args).Error(0)
}

// Diff provides a mock function.
func (w *MockWorkflow) Diff(ctx context.Context, args domain.DiffArgs) error {
	return w.Called(ctx, args).Error(0)
}

// Rules provides a mock function.
func (w *MockWorkflow) Rules(ctx context.Context) error {
	return w.Called(ctx).Error(0)
}

// MockAnalyzer is a mock implementation of domain.Analyzer.
type MockAnalyzer struct {
	mock.Mock
}

var _ domain.Analyzer = (*MockAnalyzer)(nil)

// NewMockAnalyzer creates a MockAnalyzer whose expectations are asserted
// when the test ends.
func NewMockAnalyzer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAnalyzer {
	a := &MockAnalyzer{}
	a.Mock.Test(t)

	t.Cleanup(func() { a.AssertExpectations(t) })

	return a
}

// Analyze provides a mock function.
func (a *MockAnalyzer) Analyze(ctx context.Context, source m.Source) m.FileReport {
	return a.Called(ctx, source).Get(0).(m.FileReport)
}

// Fingerprint provides a mock function.
func (a *MockAnalyzer) Fingerprint() string {
	return a.Called().String(0)
}

// Rules provides a mock function.
func (a *MockAnalyzer) Rules() []m.RuleInfo {
	ret := a.Called()
	if ret.Get(0) == nil {
		return nil
	}

	return ret.Get(0).([]m.RuleInfo)
}
