// Package models contains GORM persistence models that map to database tables.
// Domain entities carry no ORM tags; each model converts with ToDomain and FromDomain.
//
// Sales and purchase orders share the orders table, invoices and bills share
// documents, receipts and bill payments share payments. A kind column tells them apart.
package models
