package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"contacts/internal/contacts/models"
	"contacts/internal/contacts/service/mocks"
	"contacts/internal/sentinel"
	dErrors "contacts/pkg/domain-errors"
)

const (
	localRouting   = "123456789"
	callerUsername = "alice"
	callerAcct     = "1234567890"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *mocks.MockContactStore
	service   *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockContactStore(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.mockStore, localRouting, WithLogger(logger))
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) validRequest() *models.NewContactRequest {
	req, err := models.DecodeNewContact([]byte(`{
		"label": "Bob S",
		"account_num": "0000000001",
		"routing_num": "111111111",
		"is_external": true
	}`))
	s.Require().NoError(err)
	return req
}

func (s *ServiceSuite) TestGetContacts() {
	ctx := context.Background()

	s.Run("returns the stored list", func() {
		expected := []models.Contact{
			{Username: callerUsername, Label: "Bob S", AccountNum: "0000000001", RoutingNum: "111111111", IsExternal: true},
		}
		s.mockStore.EXPECT().GetContacts(gomock.Any(), callerUsername).Return(expected, nil)

		contacts, err := s.service.GetContacts(ctx, callerUsername)
		s.Require().NoError(err)
		s.Equal(expected, contacts)
	})

	s.Run("storage failure surfaces as generic internal error", func() {
		s.mockStore.EXPECT().GetContacts(gomock.Any(), callerUsername).
			Return(nil, errors.New("connection refused: 10.0.0.5:5432"))

		_, err := s.service.GetContacts(ctx, callerUsername)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.EqualError(err, "failed to retrieve contacts list")
	})
}

func (s *ServiceSuite) TestAddContact_Success() {
	ctx := context.Background()
	req := s.validRequest()

	s.mockStore.EXPECT().GetContacts(gomock.Any(), callerUsername).Return([]models.Contact{}, nil)
	s.mockStore.EXPECT().AddContact(gomock.Any(), models.Contact{
		Username:   callerUsername,
		Label:      "Bob S",
		AccountNum: "0000000001",
		RoutingNum: "111111111",
		IsExternal: true,
	}).Return(nil)

	s.Require().NoError(s.service.AddContact(ctx, callerUsername, callerAcct, req))
}

func (s *ServiceSuite) TestAddContact_ValidationShortCircuits() {
	ctx := context.Background()
	req, err := models.DecodeNewContact([]byte(`{
		"label": "Bob S",
		"account_num": "123",
		"routing_num": "111111111",
		"is_external": true
	}`))
	s.Require().NoError(err)

	// The store must never be touched for a structurally invalid candidate.
	err = s.service.AddContact(ctx, callerUsername, callerAcct, req)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.EqualError(err, "invalid account number")
}

func (s *ServiceSuite) TestAddContact_SelfReference() {
	ctx := context.Background()
	req, err := models.DecodeNewContact([]byte(`{
		"label": "Me",
		"account_num": "1234567890",
		"routing_num": "123456789",
		"is_external": false
	}`))
	s.Require().NoError(err)

	// Rejected before the store is consulted.
	err = s.service.AddContact(ctx, callerUsername, callerAcct, req)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.EqualError(err, "may not add yourself to contacts")
}

func (s *ServiceSuite) TestAddContact_SelfReferenceUsesClaimedAcct() {
	ctx := context.Background()
	// Same account/routing pair, but the caller's verified account number
	// differs, so this is a legitimate contact.
	req, err := models.DecodeNewContact([]byte(`{
		"label": "Friend",
		"account_num": "1234567890",
		"routing_num": "123456789",
		"is_external": false
	}`))
	s.Require().NoError(err)

	s.mockStore.EXPECT().GetContacts(gomock.Any(), callerUsername).Return([]models.Contact{}, nil)
	s.mockStore.EXPECT().AddContact(gomock.Any(), gomock.Any()).Return(nil)

	s.Require().NoError(s.service.AddContact(ctx, callerUsername, "9999999999", req))
}

func (s *ServiceSuite) TestAddContact_Duplicates() {
	existing := []models.Contact{
		{Username: callerUsername, Label: "Bob S", AccountNum: "0000000001", RoutingNum: "111111111", IsExternal: true},
	}

	s.Run("duplicate account and routing pair", func() {
		req, err := models.DecodeNewContact([]byte(`{
			"label": "Different Label",
			"account_num": "0000000001",
			"routing_num": "111111111",
			"is_external": true
		}`))
		s.Require().NoError(err)

		s.mockStore.EXPECT().GetContacts(gomock.Any(), callerUsername).Return(existing, nil)

		err = s.service.AddContact(context.Background(), callerUsername, callerAcct, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.EqualError(err, "account already exists as a contact")
	})

	s.Run("duplicate label", func() {
		req, err := models.DecodeNewContact([]byte(`{
			"label": "Bob S",
			"account_num": "0000000002",
			"routing_num": "111111111",
			"is_external": true
		}`))
		s.Require().NoError(err)

		s.mockStore.EXPECT().GetContacts(gomock.Any(), callerUsername).Return(existing, nil)

		err = s.service.AddContact(context.Background(), callerUsername, callerAcct, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.EqualError(err, "contact already exists with that label")
	})

	s.Run("account collision reported before label collision", func() {
		req, err := models.DecodeNewContact([]byte(`{
			"label": "Bob S",
			"account_num": "0000000001",
			"routing_num": "111111111",
			"is_external": true
		}`))
		s.Require().NoError(err)

		s.mockStore.EXPECT().GetContacts(gomock.Any(), callerUsername).Return(existing, nil)

		err = s.service.AddContact(context.Background(), callerUsername, callerAcct, req)
		s.Require().Error(err)
		s.EqualError(err, "account already exists as a contact")
	})
}

func (s *ServiceSuite) TestAddContact_RacingDuplicateFromStore() {
	// The pre-check passed, but a concurrent writer won the race and the
	// storage constraint fired. The caller sees the same conflict message
	// the pre-check would have produced.
	ctx := context.Background()

	s.Run("account constraint", func() {
		req := s.validRequest()
		s.mockStore.EXPECT().GetContacts(gomock.Any(), callerUsername).Return([]models.Contact{}, nil)
		s.mockStore.EXPECT().AddContact(gomock.Any(), gomock.Any()).Return(sentinel.ErrDuplicateAccount)

		err := s.service.AddContact(ctx, callerUsername, callerAcct, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.EqualError(err, "account already exists as a contact")
	})

	s.Run("label constraint", func() {
		req := s.validRequest()
		s.mockStore.EXPECT().GetContacts(gomock.Any(), callerUsername).Return([]models.Contact{}, nil)
		s.mockStore.EXPECT().AddContact(gomock.Any(), gomock.Any()).
			Return(errors.Join(errors.New("add contact"), sentinel.ErrDuplicateLabel))

		err := s.service.AddContact(ctx, callerUsername, callerAcct, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.EqualError(err, "contact already exists with that label")
	})
}

func (s *ServiceSuite) TestAddContact_StorageFailures() {
	ctx := context.Background()

	s.Run("list fetch fails", func() {
		req := s.validRequest()
		s.mockStore.EXPECT().GetContacts(gomock.Any(), callerUsername).
			Return(nil, errors.New("connection reset"))

		err := s.service.AddContact(ctx, callerUsername, callerAcct, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.EqualError(err, "failed to add contact")
	})

	s.Run("insert fails", func() {
		req := s.validRequest()
		s.mockStore.EXPECT().GetContacts(gomock.Any(), callerUsername).Return([]models.Contact{}, nil)
		s.mockStore.EXPECT().AddContact(gomock.Any(), gomock.Any()).
			Return(errors.New("connection reset"))

		err := s.service.AddContact(ctx, callerUsername, callerAcct, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.EqualError(err, "failed to add contact")
	})
}
