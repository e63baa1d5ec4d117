// Package view manages the lifecycle of views: atomic creation from the
// viewset catalog, additive updates, listing, and deletion.
//
// Creation stages clones under <name>.tmp and promotes the directory with a
// single rename, so observers only ever see absent or complete views.
package view
