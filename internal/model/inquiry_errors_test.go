package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smarthomesolar/solarsite/internal/model"
)

func TestInquiryErrorDescriptions(testingT *testing.T) {
	testCases := []struct {
		err           error
		expectedField string
		expectedText  string
	}{
		{err: fmt.Errorf("%w: first name", model.ErrInvalidInquiryName), expectedField: model.InquiryFieldName, expectedText: "First and last name are required."},
		{err: model.ErrInvalidInquiryEmail, expectedField: model.InquiryFieldEmail, expectedText: "Please enter a valid email address."},
		{err: model.ErrInvalidInquiryPhone, expectedField: model.InquiryFieldPhone, expectedText: "Please enter a phone number."},
		{err: model.ErrInvalidInquiryStatus, expectedField: model.InquiryFieldStatus, expectedText: "Invalid status."},
		{err: model.ErrEmptyNote, expectedField: model.InquiryFieldNote, expectedText: "Note content is required."},
		{err: model.ErrInvalidInquiryContent, expectedField: model.InquiryFieldContent, expectedText: "One of the fields is too long."},
	}
	for _, testCase := range testCases {
		require.Equal(testingT, testCase.expectedField, model.InquiryErrorField(testCase.err))
		require.Equal(testingT, testCase.expectedText, model.InquiryErrorMessage(testCase.err))
		require.True(testingT, model.IsInquiryValidationError(testCase.err))
	}

	require.Empty(testingT, model.InquiryErrorMessage(nil))
	require.False(testingT, model.IsInquiryValidationError(errors.New("disk full")))
}
