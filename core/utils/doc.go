// Package utils provides small conversion helpers shared across packages.
package utils
