// Package magnus contains the shared contracts for the Magnus remote
// content explorer: the item descriptor wire type returned by a Magnus
// server, the capability set derived from it, and the collaborator
// interfaces (credential store, server list, user interaction host) that
// the api and explorer packages are wired with.
//
// The packages build on each other bottom-up:
//
//   - [github.com/Triumph-Tech/magnus/vuri] translates between virtual
//     resource identifiers and real web URLs
//   - [github.com/Triumph-Tech/magnus/api] is the authenticated HTTP
//     contract layer (sessions, listings, content, actions, uploads)
//   - [github.com/Triumph-Tech/magnus/explorer] bridges the above into a
//     navigable tree and a virtual filesystem surface for a hosting view
package magnus
