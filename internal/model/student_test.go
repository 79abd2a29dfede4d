package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStudentProgress(t *testing.T) {
	var s Student
	assert.Equal(t, 0, s.Progress())

	s.HostelMessStatus = true
	s.LHCDocsStatus = true
	assert.Equal(t, 2, s.Progress())

	s.InsuranceStatus = true
	s.FinalApprovalStatus = true
	assert.Equal(t, TotalSteps, s.Progress())
}

func TestEligibleForToken(t *testing.T) {
	s := Student{FeesPaid: true, HostelMessStatus: true, InsuranceStatus: true}
	assert.True(t, s.EligibleForToken())

	// LHC verification and final approval are not prerequisites.
	assert.True(t, Student{FeesPaid: true, HostelMessStatus: true, InsuranceStatus: true, LHCDocsStatus: false}.EligibleForToken())

	assert.False(t, Student{HostelMessStatus: true, InsuranceStatus: true}.EligibleForToken())
	assert.False(t, Student{FeesPaid: true, InsuranceStatus: true}.EligibleForToken())
	assert.False(t, Student{FeesPaid: true, HostelMessStatus: true}.EligibleForToken())
}
