package infrastructure

import (
	"lotto/application"
	"lotto/database"
	"lotto/domain/interfaces"
	"lotto/repository"
)

// UnitOfWorkFactory creates units of work that buffer domain events in a
// transactional publisher and hand them to the real publisher on commit
type UnitOfWorkFactory struct {
	repoFactory interface {
		CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork
	}
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory. decorate may be nil.
func NewUnitOfWorkFactory(db *database.DB, eventPublisher interfaces.EventPublisher, decorate repository.SettingsDecorator) *UnitOfWorkFactory {
	repoFactory := repository.NewUnitOfWorkFactory(db)
	if decorate != nil {
		repoFactory = repoFactory.WithSettingsDecorator(decorate)
	}
	return &UnitOfWorkFactory{
		repoFactory:    repoFactory,
		eventPublisher: eventPublisher,
	}
}

// Create returns a fresh unit of work with its own pending event queue
func (f *UnitOfWorkFactory) Create() application.UnitOfWork {
	return f.repoFactory.CreateWithPublisher(NewNATSTransactionalPublisher(f.eventPublisher))
}
