// Package services orchestrates a load run: for each flagged table it extracts
// the source file, connects, and replaces the table's contents.
//
// Tables are processed strictly one after another, each on its own
// connection. A failure in one table is logged and recorded in the run report;
// processing continues with the next table.
package services
