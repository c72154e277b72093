// Package model contains the domain types shared by the service and HTTP layers.
// It carries no persistence or transport concerns.
package model
