package formopts

import "errors"

var (
	// ErrUnknownOption is the panic value (wrapped) when a caller asks for a
	// key the registry never declared.
	ErrUnknownOption = errors.New("formopts: unknown option")
	// ErrDuplicateOption indicates two definitions share a key.
	ErrDuplicateOption = errors.New("formopts: duplicate option")
	// ErrUnknownDependency indicates a guard or discriminator names an
	// undeclared key.
	ErrUnknownDependency = errors.New("formopts: unknown dependency")
	// ErrDependencyCycle indicates the declared dependency graph is cyclic.
	ErrDependencyCycle = errors.New("formopts: dependency cycle")
	// ErrInvalidDefinition covers malformed definitions (empty key, missing
	// input, duplicate choices).
	ErrInvalidDefinition = errors.New("formopts: invalid definition")
)
