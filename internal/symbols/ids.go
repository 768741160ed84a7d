package symbols

// ClassID identifies a class inside the table arena.
type ClassID uint32

// NoClassID marks the absence of a class reference.
const NoClassID ClassID = 0

// IsValid reports whether the class ID refers to an allocated class.
func (id ClassID) IsValid() bool { return id != NoClassID }

// FuncID identifies a function, member function, constructor, destructor,
// operator or function template.
type FuncID uint32

// NoFuncID marks the absence of a function reference.
const NoFuncID FuncID = 0

// IsValid reports whether the function ID refers to an allocated function.
func (id FuncID) IsValid() bool { return id != NoFuncID }

// GlobalID identifies a namespace-scope variable.
type GlobalID uint32

// NoGlobalID marks the absence of a global reference.
const NoGlobalID GlobalID = 0

// IsValid reports whether the global ID refers to an allocated global.
func (id GlobalID) IsValid() bool { return id != NoGlobalID }
