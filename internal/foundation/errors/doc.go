// Package errors provides foundational, type-safe error primitives used across docsite.
//
// A ClassifiedError carries a category, a severity and structured context so that
// the CLI can pick an exit code and print a message naming the offending path
// without parsing error strings.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryDuplicatePath, "two sources share an output path").
//		WithContext("path", "guide/intro").
//		WithContext("first", "guide/intro.md").
//		WithContext("second", "guide/intro/index.md").
//		Build()
package errors
