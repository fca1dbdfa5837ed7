// Package domain defines the data models and contracts shared by the
// application layer. The engine packages do not depend on it.
package domain
