package service

import (
	"context"

	"github.com/go-faster/errors"

	"canokart/internal/domain"
	"canokart/internal/repository"
)

// MaxSavedAddresses ограничение адресной книги
const MaxSavedAddresses = 10

// AddressInput данные адреса от клиента
type AddressInput struct {
	Label domain.AddressLabel `json:"label"`
	domain.Address
	IsDefault bool `json:"isDefault"`
}

// AddressService ведёт адресную книгу пользователя
type AddressService struct {
	books repository.AddressBookRepository
}

func NewAddressService(books repository.AddressBookRepository) *AddressService {
	return &AddressService{books: books}
}

func validateAddress(in *AddressInput) error {
	if in.Label == "" {
		in.Label = domain.AddressHome
	}
	if !in.Label.Valid() {
		return errors.Wrapf(ErrInvalidInput, "unknown label %q", in.Label)
	}
	if !in.Address.Complete() {
		return errors.Wrap(ErrInvalidInput, "fullName, city, state and pincode are required")
	}
	return nil
}

func (s *AddressService) List(ctx context.Context, userID string) ([]domain.SavedAddress, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	b, err := s.books.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.Addresses, nil
}

// Get returns one saved address of the user
func (s *AddressService) Get(ctx context.Context, userID, addressID string) (*domain.SavedAddress, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	b, err := s.books.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := b.Find(addressID)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	a := b.Addresses[i]
	return &a, nil
}

// Default returns the default address, or nil when the book is empty
func (s *AddressService) Default(ctx context.Context, userID string) (*domain.SavedAddress, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	b, err := s.books.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.Default(), nil
}

// Add appends an address. The first address, or one flagged isDefault,
// becomes the default.
func (s *AddressService) Add(ctx context.Context, userID string, in AddressInput) ([]domain.SavedAddress, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := validateAddress(&in); err != nil {
		return nil, err
	}
	b, err := s.books.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(b.Addresses) >= MaxSavedAddresses {
		return nil, errors.Wrapf(ErrInvalidInput, "at most %d addresses", MaxSavedAddresses)
	}
	a := domain.SavedAddress{
		ID:        repository.NewID(),
		Label:     in.Label,
		Address:   in.Address,
		IsDefault: in.IsDefault || len(b.Addresses) == 0,
	}
	if a.IsDefault {
		clearDefault(b)
	}
	b.Addresses = append(b.Addresses, a)
	return s.save(ctx, b)
}

// Update replaces the address fields. Clearing isDefault on the default
// address is ignored; pick another default instead.
func (s *AddressService) Update(ctx context.Context, userID, addressID string, in AddressInput) ([]domain.SavedAddress, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := validateAddress(&in); err != nil {
		return nil, err
	}
	b, err := s.books.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := b.Find(addressID)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	wasDefault := b.Addresses[i].IsDefault
	if in.IsDefault {
		clearDefault(b)
	}
	b.Addresses[i].Label = in.Label
	b.Addresses[i].Address = in.Address
	b.Addresses[i].IsDefault = in.IsDefault || wasDefault
	return s.save(ctx, b)
}

// Delete removes an address; if it was the default, the first remaining
// address takes over
func (s *AddressService) Delete(ctx context.Context, userID, addressID string) ([]domain.SavedAddress, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	b, err := s.books.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := b.Find(addressID)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	wasDefault := b.Addresses[i].IsDefault
	b.Addresses = append(b.Addresses[:i], b.Addresses[i+1:]...)
	if wasDefault && len(b.Addresses) > 0 {
		b.Addresses[0].IsDefault = true
	}
	return s.save(ctx, b)
}

func (s *AddressService) save(ctx context.Context, b *domain.AddressBook) ([]domain.SavedAddress, error) {
	if err := s.books.Save(ctx, b); err != nil {
		return nil, err
	}
	return b.Addresses, nil
}

func clearDefault(b *domain.AddressBook) {
	for i := range b.Addresses {
		b.Addresses[i].IsDefault = false
	}
}
