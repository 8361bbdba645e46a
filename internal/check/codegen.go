package check

import (
	"fmt"
	"strings"

	"github.com/mercere99/emperfect/internal/testcase"
)

// GenerateSource produces the complete translation unit for one test: fixed
// boilerplate, the type-name machinery, the shared header, the rewritten body
// inside a runner function, and a file-scope object whose constructor runs
// the checks before main.
func GenerateSource(t *testcase.Test, headerLines []string, rewrittenBody string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "// Generated by Emperfect for test case %d. Do not edit.\n", t.ID)
	b.WriteString(boilerplate)
	b.WriteString("\n")

	for _, line := range headerLines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("namespace emperfect {\n\n")
	b.WriteString("void RunChecks(std::ostream & _emperfect_out) {\n")
	b.WriteString("    ")
	b.WriteString(rewrittenBody)
	b.WriteString("\n}\n\n")

	b.WriteString("struct Runner {\n")
	b.WriteString("  Runner() {\n")
	fmt.Fprintf(&b, "    std::ofstream results(%s);\n", Literal(t.ResultFile))
	b.WriteString("    RunChecks(results);\n")
	fmt.Fprintf(&b, "    results << \"SCORE \" << (all_passed ? %g : 0.0) << \"\\n\";\n", t.Points)
	b.WriteString("    results.close();\n")
	if !t.CallMain {
		b.WriteString("    std::exit(0);\n")
	}
	b.WriteString("  }\n")
	b.WriteString("};\n\n")
	b.WriteString("Runner runner_instance;\n\n")
	b.WriteString("} // namespace emperfect\n")

	return b.String()
}

// boilerplate is everything a generated test needs before the user header:
// includes, the type-name registry and GetTypeName, and the value/message
// stringification helpers the instrumented checks call.
const boilerplate = `#include <cstddef>
#include <cstdint>
#include <cstdlib>
#include <fstream>
#include <iostream>
#include <map>
#include <sstream>
#include <string>
#include <type_traits>
#include <typeinfo>
#include <vector>

namespace emperfect {

bool all_passed = true;

// Registry from the implementation-provided type identifier to the spelling
// shown in reports. Aliased entries (size_t on most platforms) keep the first
// spelling inserted.
inline std::map<std::string, std::string> & TypeNameRegistry() {
  static std::map<std::string, std::string> registry = {
    { typeid(bool).name(), "bool" },
    { typeid(char).name(), "char" },
    { typeid(float).name(), "float" },
    { typeid(double).name(), "double" },
    { typeid(int8_t).name(), "int8_t" },
    { typeid(int16_t).name(), "int16_t" },
    { typeid(int32_t).name(), "int32_t" },
    { typeid(int64_t).name(), "int64_t" },
    { typeid(uint8_t).name(), "uint8_t" },
    { typeid(uint16_t).name(), "uint16_t" },
    { typeid(uint32_t).name(), "uint32_t" },
    { typeid(uint64_t).name(), "uint64_t" },
    { typeid(size_t).name(), "size_t" },
    { typeid(std::string).name(), "std::string" },
  };
  return registry;
}

template <typename T> struct TypeName {
  static std::string Get() {
    auto & registry = TypeNameRegistry();
    auto it = registry.find(typeid(T).name());
    if (it != registry.end()) return it->second;
    return typeid(T).name();
  }
};
template <typename T> struct TypeName<const T> {
  static std::string Get() { return TypeName<T>::Get() + " const"; }
};
template <typename T> struct TypeName<T &> {
  static std::string Get() { return TypeName<T>::Get() + " &"; }
};
template <typename T> struct TypeName<std::vector<T>> {
  static std::string Get() { return "vector<" + TypeName<T>::Get() + ">"; }
};
template <typename R> struct TypeName<R()> {
  static std::string Get() { return TypeName<R>::Get() + "()"; }
};
template <typename R, typename A1> struct TypeName<R(A1)> {
  static std::string Get() {
    return TypeName<R>::Get() + "(" + TypeName<A1>::Get() + ")";
  }
};
template <typename R, typename A1, typename A2> struct TypeName<R(A1, A2)> {
  static std::string Get() {
    return TypeName<R>::Get() + "(" + TypeName<A1>::Get() + "," + TypeName<A2>::Get() + ")";
  }
};
template <typename R, typename A1, typename A2, typename A3>
struct TypeName<R(A1, A2, A3)> {
  static std::string Get() {
    return TypeName<R>::Get() + "(" + TypeName<A1>::Get() + "," + TypeName<A2>::Get() +
           "," + TypeName<A3>::Get() + ")";
  }
};
template <typename R, typename A1, typename A2, typename A3, typename A4>
struct TypeName<R(A1, A2, A3, A4)> {
  static std::string Get() {
    return TypeName<R>::Get() + "(" + TypeName<A1>::Get() + "," + TypeName<A2>::Get() +
           "," + TypeName<A3>::Get() + "," + TypeName<A4>::Get() + ")";
  }
};
template <typename R, typename A1, typename A2, typename A3, typename A4, typename A5>
struct TypeName<R(A1, A2, A3, A4, A5)> {
  static std::string Get() {
    return TypeName<R>::Get() + "(" + TypeName<A1>::Get() + "," + TypeName<A2>::Get() +
           "," + TypeName<A3>::Get() + "," + TypeName<A4>::Get() + "," + TypeName<A5>::Get() + ")";
  }
};
template <typename R, typename A1, typename A2, typename A3, typename A4, typename A5,
          typename A6>
struct TypeName<R(A1, A2, A3, A4, A5, A6)> {
  static std::string Get() {
    return TypeName<R>::Get() + "(" + TypeName<A1>::Get() + "," + TypeName<A2>::Get() +
           "," + TypeName<A3>::Get() + "," + TypeName<A4>::Get() + "," + TypeName<A5>::Get() +
           "," + TypeName<A6>::Get() + ")";
  }
};

template <typename T> std::string GetTypeName() { return TypeName<T>::Get(); }

// Escape folds newlines out of a value so it fits the line-oriented results
// protocol.
inline std::string Escape(const std::string & in) {
  std::string out;
  for (char ch : in) {
    switch (ch) {
      case '\n': out += "\\n"; break;
      case '\r': out += "\\r"; break;
      case '\t': out += "\\t"; break;
      default: out += ch;
    }
  }
  return out;
}

template <typename T>
std::string ToLiteral(const T & value) {
  std::stringstream ss;
  ss << value;
  return Escape(ss.str());
}

} // namespace emperfect
`
