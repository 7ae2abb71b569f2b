// Package comments classifies source comments, attaches each one to a syntax
// node and turns them back into layout elements.
//
// A language front end reports comment spans (Raw), Classify derives their
// placement from the surrounding text, and Attach assigns them as leading,
// trailing or dangling comments of the nodes the front end lists. While
// building layout the front end asks the Map for the comments of every node
// it prints; Unformatted must be empty at the end of a pass, otherwise
// comments would be lost and the caller keeps the file unchanged.
package comments
