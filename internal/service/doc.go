// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and repositories
// (defined in internal/store) to fulfill application features.
//
// The service package implements the application layer in the clean architecture,
// containing use cases that coordinate the flow of data between external interfaces
// (API, message queues, etc.) and the domain layer. It abstracts away infrastructure
// details while orchestrating domain entities to fulfill business requirements.
//
// Key components:
//
// 1. Service Interfaces:
//   - Define application-specific operations available to the delivery mechanisms
//   - Each service focuses on a specific domain area (card generation, decks, studying)
//
// 2. Use Case Implementations:
//   - Coordinate between multiple repositories and domain services
//   - Apply transactional boundaries (via store.TxRunner) when operations span
//     multiple repositories
//   - Enforce application-level business rules such as the daily generation quota
//
// 3. Dependency Management:
//   - Services receive dependencies through constructor injection
//   - Core dependencies include the store bundle, the transaction runner,
//     the card generator, and the Leitner scheduler
//
// 4. Error Handling:
//   - Expected conditions surface as sentinel errors (see errors.go) checked
//     with errors.Is; unexpected failures are wrapped with operation context
//   - The API layer maps both kinds to HTTP status codes
//
// The service layer depends on domain entities and repository interfaces (from store),
// but never on specific infrastructure implementations, maintaining the Dependency
// Inversion Principle of clean architecture.
package service
