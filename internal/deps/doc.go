// Package deps checks that the external binaries bdremux invokes are present.
package deps
