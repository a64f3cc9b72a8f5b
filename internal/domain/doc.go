// Package domain defines the core business entities and errors of the word
// pool: the Word record, its assignment states and the rules that keep an
// assignment consistent. It has no knowledge of storage or transport.
package domain
